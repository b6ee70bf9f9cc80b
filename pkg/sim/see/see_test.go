package see

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/drive.go/pkg/sim"
)

func decodeLines(t *testing.T, out *bytes.Buffer) [][]Message {
	var batches [][]Message
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var msgs []Message
		require.NoError(t, json.Unmarshal([]byte(line), &msgs))
		batches = append(batches, msgs)
	}
	out.Reset()
	return batches
}

func TestReportChanges(t *testing.T) {
	var out bytes.Buffer
	car := sim.NewCar(sim.DefaultCarConfig())
	a := NewConfig().NewAdapter(car)
	a.Out = &out

	require.NoError(t, a.ReportChanges(nil))
	batches := decodeLines(t, &out)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 6)
	assert.Equal(t, ActionReset, batches[0][0].Action)
	assert.Equal(t, CarID, batches[0][5].Object[PropID])

	require.NoError(t, a.ReportChanges(nil))
	assert.Empty(t, out.String(), "unchanged pose is not reported")

	car.ESC.SetPulse(6400)
	for i := 0; i < 100; i++ {
		car.Step(10 * time.Millisecond)
	}
	require.NoError(t, a.ReportChanges(nil))
	batches = decodeLines(t, &out)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	obj := batches[0][0].Object
	origin := obj[PropOrigin].(map[string]interface{})
	assert.Greater(t, origin["x"].(float64), 100.0)
	assert.Greater(t, obj["distance"].(float64), 0.1)
}
