// Package recordsync keeps a collection of {id, value} records in sync with a
// hand-edited JSON text.
//
// - Store holds the canonical Collection and notifies subscribers on every change
// - ToText renders the canonical text; Validate decodes and checks edited text
// - Validation is fail-fast and reports one *Diagnostic with a best-effort line
// - Engine binds a Store to an editor text: Apply, Reset, AddItem, Replace
//
// Design policy:
// - Keep only public APIs in the root package; put the token engine under internal/.
// - JSON drivers live under source/, adapters under httpapi/, events/ and watch/,
//   YAML settings under config/, and the CLI under cmd/recordsync.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	store := recordsync.NewStore()
//	store.SetData(seed)
//	e := recordsync.NewEngine(store, recordsync.WithLanguage("ko"))
//	defer e.Close()
//
//	if _, err := e.ApplyText(edited); err != nil {
//		d, _ := recordsync.AsDiagnostic(err)
//		fmt.Println(d.Message, d.Line)
//	}
package recordsync
