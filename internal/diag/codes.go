package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0
	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexTokenTooLong             Code = 1005
	LexUnterminatedChar         Code = 1006

	// Парсерные
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynUnclosedDelimiter  Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectType         Code = 2004
	SynExpectExpression   Code = 2005
	SynUnexpectedTopLevel Code = 2006
	SynExpectBody         Code = 2007
	SynBadTemplateEntry   Code = 2008

	// Семантические
	SemaInfo                Code = 3000
	SemaUnresolvedReference Code = 3001
	SemaAmbiguousCall       Code = 3002

	// Инлайнинг
	InlineInfo              Code = 4000
	InlineMultipleReturns   Code = 4001
	InlineNoBody            Code = 4002
	InlineRecursive         Code = 4003
	InlineUsageSkipped      Code = 4004
	InlineNonLocalJump      Code = 4005
	InlineCallableReference Code = 4006
	InlineNotCallable       Code = 4007
	InlineDeclarationKept   Code = 4008
	InlineUnsupportedUsage  Code = 4009

	// I/O
	IOInfo           Code = 5000
	IOLoadFileError  Code = 5001
	IOWriteFileError Code = 5002
	IOStaleEdit      Code = 5003

	// Проект
	ProjInfo             Code = 6000
	ProjManifestInvalid  Code = 6001
	ProjNoSources        Code = 6002
	ProjUndoJournalError Code = 6003

	ObsInfo    Code = 7000
	ObsTimings Code = 7001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnknownChar:              "Unknown character",
		LexUnterminatedString:       "Unterminated string literal",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexBadNumber:                "Bad number literal",
		LexTokenTooLong:             "Token too long",
		LexUnterminatedChar:         "Unterminated char literal",
		SynInfo:                     "Syntax information",
		SynUnexpectedToken:          "Unexpected token",
		SynUnclosedDelimiter:        "Unclosed delimiter",
		SynExpectIdentifier:         "Expected identifier",
		SynExpectType:               "Expected type",
		SynExpectExpression:         "Expected expression",
		SynUnexpectedTopLevel:       "Unexpected top-level construct",
		SynExpectBody:               "Expected body",
		SynBadTemplateEntry:         "Malformed string template entry",
		SemaInfo:                    "Semantic information",
		SemaUnresolvedReference:     "Unresolved reference",
		SemaAmbiguousCall:           "Ambiguous call",
		InlineInfo:                  "Inline information",
		InlineMultipleReturns:       "Declaration has return statements that cannot be inlined",
		InlineNoBody:                "Declaration has no body",
		InlineRecursive:             "Declaration is recursive",
		InlineUsageSkipped:          "Usage was not inlined",
		InlineNonLocalJump:          "Lambda contains a non-local jump",
		InlineCallableReference:     "Callable reference cannot be inlined",
		InlineNotCallable:           "Target is not an inlinable declaration",
		InlineDeclarationKept:       "Declaration kept because some usages were not inlined",
		InlineUnsupportedUsage:      "Usage shape is not supported",
		IOInfo:                      "I/O information",
		IOLoadFileError:             "Failed to load file",
		IOWriteFileError:            "Failed to write file",
		IOStaleEdit:                 "File changed on disk",
		ProjInfo:                    "Project information",
		ProjManifestInvalid:         "Invalid splice.toml",
		ProjNoSources:               "No source files found",
		ProjUndoJournalError:        "Undo journal is unreadable",
		ObsInfo:                     "Observability information",
		ObsTimings:                  "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("INL%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
