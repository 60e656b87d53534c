// Package token defines lexical token kinds and trivia for Kt sources.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Begin..End).
//   - Annotations and labels are lexed as '@' (Kind: At) + Ident; whether the
//     '@' is glued to its neighbours is recovered from Leading trivia.
//   - A string literal, including every `$name` / `${...}` entry, is a single
//     StringLit/RawStringLit token; the parser sub-lexes template entries.
//   - Soft keywords (get, vararg, constructor, package targets) are identifiers.
package token
