// Package quiz defines the vocabulary of the arithmetic quiz: the operations
// and difficulty levels a learner can pick, the message roles exchanged with
// the model, and the per-request configuration snapshot.
package quiz

import (
	"fmt"
	"strings"
)

// Operation is the arithmetic operation the learner wants to practice.
// Values are the display labels; they are sent verbatim to the model.
type Operation string

const (
	OpAddition       Operation = "➕ 덧셈"
	OpSubtraction    Operation = "➖ 뺄셈"
	OpMultiplication Operation = "✖️ 곱셈"
	OpDivision       Operation = "➗ 나눗셈"
	OpMixed          Operation = "🎲 섞어서!"
)

// Difficulty is the number range the learner wants to practice with.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "🟢 쉬움 (1~20)"
	DifficultyNormal Difficulty = "🟡 보통 (1~100)"
	DifficultyHard   Difficulty = "🔴 어려움 (1~1000)"
)

var operations = []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision, OpMixed}

var difficulties = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard}

// operationKeys maps short ASCII keys to operations for CLI and API callers.
var operationKeys = map[string]Operation{
	"add":   OpAddition,
	"sub":   OpSubtraction,
	"mul":   OpMultiplication,
	"div":   OpDivision,
	"mixed": OpMixed,
}

var difficultyKeys = map[string]Difficulty{
	"easy":   DifficultyEasy,
	"normal": DifficultyNormal,
	"hard":   DifficultyHard,
}

// Operations returns all operations in display order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Difficulties returns all difficulty levels in display order.
func Difficulties() []Difficulty {
	out := make([]Difficulty, len(difficulties))
	copy(out, difficulties)
	return out
}

// Valid reports whether o is one of the fixed operation labels.
func (o Operation) Valid() bool {
	for _, op := range operations {
		if op == o {
			return true
		}
	}
	return false
}

// Key returns the short ASCII key for o, or "" if o is not valid.
func (o Operation) Key() string {
	for k, v := range operationKeys {
		if v == o {
			return k
		}
	}
	return ""
}

// Valid reports whether d is one of the fixed difficulty labels.
func (d Difficulty) Valid() bool {
	for _, v := range difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// Key returns the short ASCII key for d, or "" if d is not valid.
func (d Difficulty) Key() string {
	for k, v := range difficultyKeys {
		if v == d {
			return k
		}
	}
	return ""
}

// ParseOperation accepts either a display label or a short key.
func ParseOperation(s string) (Operation, error) {
	s = strings.TrimSpace(s)
	if op := Operation(s); op.Valid() {
		return op, nil
	}
	if op, ok := operationKeys[strings.ToLower(s)]; ok {
		return op, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// ParseDifficulty accepts either a display label or a short key.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	if d := Difficulty(s); d.Valid() {
		return d, nil
	}
	if d, ok := difficultyKeys[strings.ToLower(s)]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}
