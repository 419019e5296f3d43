package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"daoforge/internal/stage"
)

func TestPrinter_StageLifecycle(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.StageStart(stage.DeployContracts)
	p.StageSuccess(stage.DeployContracts, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "deployContracts")
	assert.Contains(t, out, "1.5s")
}

func TestPrinter_StageFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.StageFailure(stage.Register, errors.New("execution reverted"))

	out := buf.String()
	assert.Contains(t, out, "register")
	assert.Contains(t, out, "execution reverted")
	assert.Contains(t, out, "daoforge deploy")
}

func TestPrinter_Blocked(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Blocked(stage.Register, "contractAddresses.proxy")

	out := buf.String()
	assert.Contains(t, out, "register")
	assert.Contains(t, out, "contractAddresses.proxy")
}

func TestPrinter_AllCompleteAndNext(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Next(stage.DeployProof)
	p.AllComplete()

	out := buf.String()
	assert.Contains(t, out, "deployProof")
	assert.Contains(t, out, "deployment complete")
}
