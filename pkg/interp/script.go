package interp

import (
	"bufio"
	"bytes"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ReadScript loads an instruction from a file. Blanks outside quotes are
// dropped, '#' starts a comment, and every line that does not open or close
// the instruction must end with a comma.
func ReadScript(fs afero.Fs, name string) (string, error) {
	bs, err := afero.ReadFile(fs, name)
	if err != nil {
		return "", errors.Wrapf(err, "read instruction file %q", name)
	}

	var out []byte
	var last byte
	inQuotes := false
	escape := false

	sc := bufio.NewScanner(bytes.NewReader(bs))
	for n := 1; sc.Scan(); n++ {
		added := 0

		line := sc.Bytes()
	scan:
		for _, c := range line {
			if !inQuotes {
				switch c {
				case ' ', '\t':
					continue
				case '#', '\r':
					break scan
				}
			}

			if len(out) == 0 && c != '<' {
				return "", errors.Errorf("line %d: expected '<' but got %q", n, c)
			}

			out = append(out, c)
			last = c
			added++
			if len(out) > MaxInstruction {
				return "", errors.Errorf("instruction longer than %d bytes", MaxInstruction)
			}

			if inQuotes && c == '\\' && !escape {
				escape = true
				continue
			}
			if !escape && c == '\'' {
				inQuotes = !inQuotes
			}
			escape = false
		}

		if inQuotes {
			return "", errors.Errorf("line %d: closing quote missing", n)
		}
		if added > 0 && last != '<' && last != '>' && last != ',' {
			return "", errors.Errorf("line %d: expected ',' at end of line but got %q", n, last)
		}
	}
	if err := sc.Err(); err != nil {
		return "", errors.Wrapf(err, "read instruction file %q", name)
	}

	if last != '>' {
		return "", errors.Errorf("expected '>' at end of instruction but got %q", last)
	}

	return string(out), nil
}
