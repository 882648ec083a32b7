package calc

import (
	"errors"
	"fmt"
	"strings"
)

var closers = map[rune]rune{')': '(', '}': '{'}

// CheckExpression performs a shallow syntax check: the text must be
// non-empty and its brackets and quotes balanced. Text inside string
// literals, quoted table names and [column] references is not inspected
// for brackets.
func CheckExpression(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return errors.New("expression is empty")
	}

	var (
		stack []rune
		quote rune
	)

	for pos, r := range expr {
		if quote != 0 {
			if r == quote {
				quote = 0
			}

			continue
		}

		switch r {
		case '"', '\'':
			quote = r
		case '[':
			// column references close on the next ']'
			quote = ']'
		case '(', '{':
			stack = append(stack, r)
		case ')', '}':
			if len(stack) == 0 || stack[len(stack)-1] != closers[r] {
				return fmt.Errorf("unbalanced %q at offset %d", r, pos)
			}

			stack = stack[:len(stack)-1]
		case ']':
			return fmt.Errorf("unbalanced %q at offset %d", r, pos)
		}
	}

	if quote == ']' {
		return errors.New("unterminated column reference")
	}

	if quote != 0 {
		return fmt.Errorf("unterminated %c quote", quote)
	}

	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}

	return nil
}
