// Package language normalizes language identifiers used across translation,
// speech, and voice metadata.
//
// Inputs may be BCP 47 tags ("pt-BR"), ISO 639-2 codes ("fra"), or English
// words ("german"). Canonical forms come from golang.org/x/text/language so
// every stage keys voice metadata and artifacts with the same spelling.
package language
