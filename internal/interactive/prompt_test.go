package interactive

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirmYes(t *testing.T) {
	for _, answer := range []string{"y\n", "yes\n", "YES\n", "  y  \n"} {
		var out bytes.Buffer
		p := NewPrompterWithIO(strings.NewReader(answer), &out)
		if !p.Confirm("Install version %s now?", "2.0.0") {
			t.Errorf("answer %q should confirm", answer)
		}
		if !strings.Contains(out.String(), "Install version 2.0.0 now?") {
			t.Errorf("prompt not rendered: %q", out.String())
		}
	}
}

func TestConfirmNo(t *testing.T) {
	for _, answer := range []string{"n\n", "no\n", "maybe\n", "\n"} {
		var out bytes.Buffer
		p := NewPrompterWithIO(strings.NewReader(answer), &out)
		if p.Confirm("Proceed?") {
			t.Errorf("answer %q should not confirm", answer)
		}
	}
}

func TestConfirmEOF(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompterWithIO(strings.NewReader(""), &out)
	if p.Confirm("Proceed?") {
		t.Error("EOF should not confirm")
	}
}
