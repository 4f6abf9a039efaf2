package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDefaultIsSilent(t *testing.T) {
	if L().IsLevelEnabled(logrus.ErrorLevel) {
		t.Fatal("default logger should not log errors")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	SetLogger(l)
	defer SetLogger(nil)

	WithComponent("mipmap").Info("regenerated")
	if !strings.Contains(buf.String(), "component=mipmap") {
		t.Errorf("got %q, want component field", buf.String())
	}

	SetLogger(nil)
	if L() == l {
		t.Error("SetLogger(nil) should restore the discard logger")
	}
}
