// Package confirm gates destructive actions behind an explicit human
// confirmation.
//
// A [Gate] moves through idle → confirming → in-flight → idle. Entering
// confirming needs a human-readable description of the action; only an
// affirmative answer moves on to in-flight, and a negative answer or a
// dismissal returns to idle without the action being run. A gate handles
// one item at a time: while it is not idle further requests fail with
// [ErrGateBusy].
//
// Answers come from a [Confirmer]. [TerminalConfirmer] asks on an
// interactive terminal and [AutoConfirmer] answers without asking, for
// --yes and for tests.
package confirm
