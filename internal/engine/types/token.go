package types

import (
	"encoding/json"
	"fmt"
)

// TokenKind is the semantic class the backend assigns to a token.
type TokenKind string

const (
	TokenClass          TokenKind = "Class"
	TokenFunction       TokenKind = "Function"
	TokenVariable       TokenKind = "Variable"
	TokenParameter      TokenKind = "Parameter"
	TokenModule         TokenKind = "Module"
	TokenKeywordControl TokenKind = "KeywordControl"
)

type TokenModifier string

const (
	ModifierConstant TokenModifier = "Constant"
	ModifierIterable TokenModifier = "Iterable"
)

// SemanticToken is one symbol occurrence reported by the backend.
type SemanticToken struct {
	Definition            Position
	Location              Location
	Kind                  TokenKind
	Modifiers             []TokenModifier
	DataType              DataType
	IsOriginalDeclaration bool
}

// Validate checks the original-declaration invariant: only functions and
// modules may be original declarations, and they must carry a matching type.
func (t SemanticToken) Validate() error {
	if !t.Location.Valid() {
		return fmt.Errorf("token location %s is inverted", t.Location)
	}
	if !t.IsOriginalDeclaration {
		return nil
	}
	switch t.Kind {
	case TokenFunction:
		switch t.DataType.(type) {
		case *Function, *ConstructorFunction:
			if !IsNil(t.DataType) {
				return nil
			}
		}
		return fmt.Errorf("function declaration at %s carries no function type", t.Location.Start)
	case TokenModule:
		if m, ok := t.DataType.(*Module); ok && m != nil {
			return nil
		}
		return fmt.Errorf("module declaration at %s carries no module type", t.Location.Start)
	default:
		return fmt.Errorf("token kind %q cannot be an original declaration", t.Kind)
	}
}

type wireToken struct {
	Definition            Position        `json:"definition"`
	Location              Location        `json:"location"`
	TokenType             TokenKind       `json:"token_type"`
	TokenModifier         []TokenModifier `json:"token_modifier"`
	DataType              json.RawMessage `json:"data_type"`
	IsOriginalDeclaration bool            `json:"is_original_decl"`
}

func (t *SemanticToken) UnmarshalJSON(data []byte) error {
	var w wireToken
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	dt, err := DecodeDataType(w.DataType)
	if err != nil {
		return fmt.Errorf("token at %s: %w", w.Location.Start, err)
	}
	*t = SemanticToken{
		Definition:            w.Definition,
		Location:              w.Location,
		Kind:                  w.TokenType,
		Modifiers:             w.TokenModifier,
		DataType:              dt,
		IsOriginalDeclaration: w.IsOriginalDeclaration,
	}
	return nil
}

func (t SemanticToken) MarshalJSON() ([]byte, error) {
	raw, err := EncodeDataType(t.DataType)
	if err != nil {
		return nil, err
	}
	modifiers := t.Modifiers
	if modifiers == nil {
		modifiers = []TokenModifier{}
	}
	return json.Marshal(wireToken{
		Definition:            t.Definition,
		Location:              t.Location,
		TokenType:             t.Kind,
		TokenModifier:         modifiers,
		DataType:              raw,
		IsOriginalDeclaration: t.IsOriginalDeclaration,
	})
}
