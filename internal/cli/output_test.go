package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func testOutput(jsonMode bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Output{jsonMode: jsonMode, w: &out, errW: &errOut}, &out, &errOut
}

func TestOutputChannelsTable(t *testing.T) {
	o, out, _ := testOutput(false)

	o.Channels([]ChannelResponse{
		{ChannelID: "tg-main", ScenarioID: "greeting", Transport: "queue", State: "POLLING"},
		{ChannelID: "nightly", ScenarioID: "report", Transport: "cron", State: "UNLOADED"},
	})

	got := out.String()
	for _, want := range []string{"CHANNEL_ID", "tg-main", "POLLING", "nightly", "cron"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestOutputScenariosJSON(t *testing.T) {
	o, out, _ := testOutput(true)

	o.Scenarios([]ScenarioResponse{{ScenarioID: "greeting", Name: "Greeting"}})

	var decoded []map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("json mode produced invalid JSON: %v\n%s", err, out.String())
	}
	if len(decoded) != 1 || decoded[0]["scenario_id"] != "greeting" {
		t.Errorf("decoded = %v, want one scenario with id greeting", decoded)
	}
}

func TestOutputMessagesGoToStderr(t *testing.T) {
	o, out, errOut := testOutput(false)

	o.Success("done")
	o.Error("boom")

	if out.Len() != 0 {
		t.Errorf("stdout должен оставаться чистым для данных, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "done") || !strings.Contains(errOut.String(), "Error: boom") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
