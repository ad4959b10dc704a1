package machine

import (
	"math"
	"reflect"

	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/host"
)

func unary(op string, v any) (any, error) {
	switch op {
	case "-":
		switch v := v.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
	case "!":
		if b, ok := v.(bool); ok {
			return !b, nil
		}
	}
	return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidOperation).
		Detail("invalid operation %s%s", op, host.TypeName(v)).
		Build()
}

func binary(op string, x, y any) (any, error) {
	switch op {
	case "==":
		return equal(x, y), nil
	case "!=":
		return !equal(x, y), nil
	case "<", "<=", ">", ">=":
		return compare(op, x, y)
	}

	if op == "+" {
		if xs, ok := x.(string); ok {
			if ys, ok := y.(string); ok {
				return xs + ys, nil
			}
		}
	}

	xi, xInt := x.(int64)
	yi, yInt := y.(int64)
	if xInt && yInt {
		return intOp(op, xi, yi)
	}
	xf, xok := toFloat(x)
	yf, yok := toFloat(y)
	if xok && yok {
		return floatOp(op, xf, yf)
	}
	return nil, errors.InvalidOperation(op, x, y)
}

func intOp(op string, x, y int64) (any, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/", "%":
		if y == 0 {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidOperation).
				Detail("integer division by zero").
				Build()
		}
		if op == "/" {
			return x / y, nil
		}
		return x % y, nil
	}
	return nil, errors.InvalidOperation(op, x, y)
}

func floatOp(op string, x, y float64) (any, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		return x / y, nil
	case "%":
		return math.Mod(x, y), nil
	}
	return nil, errors.InvalidOperation(op, x, y)
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// equal compares numbers by value across int and float, and everything else
// by Go equality where the dynamic type allows it.
func equal(x, y any) bool {
	if xf, ok := toFloat(x); ok {
		yf, ok := toFloat(y)
		return ok && xf == yf
	}
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	tx, ty := reflect.TypeOf(x), reflect.TypeOf(y)
	if tx != ty || !tx.Comparable() {
		return false
	}
	return x == y
}

func compare(op string, x, y any) (any, error) {
	var c int
	switch {
	case isString(x) && isString(y):
		xs, ys := x.(string), y.(string)
		switch {
		case xs < ys:
			c = -1
		case xs > ys:
			c = 1
		}
	default:
		xi, xInt := x.(int64)
		yi, yInt := y.(int64)
		if xInt && yInt {
			switch {
			case xi < yi:
				c = -1
			case xi > yi:
				c = 1
			}
			break
		}
		xf, xok := toFloat(x)
		yf, yok := toFloat(y)
		if !xok || !yok {
			return nil, errors.InvalidOperation(op, x, y)
		}
		switch {
		case xf < yf:
			c = -1
		case xf > yf:
			c = 1
		}
	}

	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	}
	return c >= 0, nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
