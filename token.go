package cnext

import "fmt"

type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokFloat
	TokChar
	TokString   // plain "..."
	TokTemplate // `...` with optional ${expr} parts, raw text between backticks

	// Keywords
	TokIf
	TokElse
	TokWhile
	TokDo
	TokFor
	TokSwitch
	TokCase
	TokDefault
	TokBreak
	TokReturn
	TokStruct
	TokEnum
	TokBitmap
	TokRegister
	TokScope
	TokPublic
	TokPrivate
	TokCallback
	TokCritical
	TokThis
	TokGlobal
	TokTrue
	TokFalse
	TokConst
	TokVolatile
	TokAtomic
	TokClamp

	// Punctuation / operators
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokComma
	TokDot
	TokColon
	TokSemi
	TokQuestion

	TokArrowAssign // <-
	TokPlusAssign  // +<-
	TokMinusAssign
	TokStarAssign
	TokSlashAssign
	TokPercentAssign
	TokAmpAssign
	TokPipeAssign
	TokCaretAssign
	TokShlAssign
	TokShrAssign

	TokEq // =  (single equals denotes equality)
	TokNeq
	TokLt
	TokLte
	TokGt
	TokGte
	TokAndAnd
	TokOrOr
	TokOrOr2 // unused: the lexer emits every `||` as TokOrOr and the parser never checks for this kind
	TokAmp
	TokPipe
	TokCaret
	TokTilde
	TokBang
	TokShl
	TokShr
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent

	TokHash // '#' for #include
	TokLt2  // reserved
)

var keywords = map[string]TokenKind{
	"if": TokIf, "else": TokElse, "while": TokWhile, "do": TokDo, "for": TokFor,
	"switch": TokSwitch, "case": TokCase, "default": TokDefault, "break": TokBreak,
	"return": TokReturn, "struct": TokStruct, "enum": TokEnum, "bitmap": TokBitmap,
	"register": TokRegister, "scope": TokScope, "public": TokPublic, "private": TokPrivate,
	"callback": TokCallback, "critical": TokCritical, "this": TokThis, "global": TokGlobal,
	"true": TokTrue, "false": TokFalse, "const": TokConst, "volatile": TokVolatile,
	"atomic": TokAtomic, "clamp": TokClamp,
}

type Token struct {
	Kind TokenKind
	Text string
	Rg   Range
}

func (t Token) String() string { return fmt.Sprintf("%s(%q)@%s", tokenKindNames[t.Kind], t.Text, t.Rg) }

var tokenKindNames = map[TokenKind]string{
	TokEOF: "EOF", TokIdent: "IDENT", TokInt: "INT", TokFloat: "FLOAT",
	TokChar: "CHAR", TokString: "STRING", TokTemplate: "TEMPLATE",
}
