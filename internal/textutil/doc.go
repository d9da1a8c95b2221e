// Package textutil provides small text helpers shared by export naming and
// the sentence source: filename sanitization and whitespace collapsing.
package textutil
