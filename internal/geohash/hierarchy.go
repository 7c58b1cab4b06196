package geohash

import "fmt"

// Parent returns the enclosing cell one precision level up.
func Parent(code string) (string, error) {
	if err := Validate(code); err != nil {
		return "", err
	}
	if len(code) == MinPrecision {
		return "", fmt.Errorf("%w: %q has no parent", ErrInvalidPrecision, code)
	}
	return code[:len(code)-1], nil
}

// Children returns the 32 cells one precision level down, sorted.
func Children(code string) ([]string, error) {
	if err := Validate(code); err != nil {
		return nil, err
	}
	if len(code) == MaxPrecision {
		return nil, fmt.Errorf("%w: %q is already at max precision", ErrInvalidPrecision, code)
	}
	out := make([]string, 0, len(Alphabet))
	for i := 0; i < len(Alphabet); i++ {
		out = append(out, code+Alphabet[i:i+1])
	}
	return out, nil
}

// ToParent truncates code to precision p.
func ToParent(code string, p int) (string, error) {
	if err := Validate(code); err != nil {
		return "", err
	}
	if err := ValidatePrecision(p); err != nil {
		return "", err
	}
	if p > len(code) {
		return "", fmt.Errorf("%w: parent precision %d must be <= cell precision %d", ErrInvalidPrecision, p, len(code))
	}
	return code[:p], nil
}

// ToChildren expands code to every descendant at precision p, sorted.
func ToChildren(code string, p int) ([]string, error) {
	if err := Validate(code); err != nil {
		return nil, err
	}
	if err := ValidatePrecision(p); err != nil {
		return nil, err
	}
	if p < len(code) {
		return nil, fmt.Errorf("%w: child precision %d must be >= cell precision %d", ErrInvalidPrecision, p, len(code))
	}

	out := []string{code}
	for level := len(code); level < p; level++ {
		next := make([]string, 0, len(out)*len(Alphabet))
		for _, c := range out {
			for i := 0; i < len(Alphabet); i++ {
				next = append(next, c+Alphabet[i:i+1])
			}
		}
		out = next
	}
	return out, nil
}
