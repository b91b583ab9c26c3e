package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Output форматирует вывод CLI: таблицы для людей, JSON для скриптов.
//
// Табличное представление каждой сущности задаётся здесь, а не в
// командах: команды решают что показать, Output — как.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Scenarios выводит список сценариев.
func (o *Output) Scenarios(scenarios []ScenarioResponse) {
	rows := make([][]string, len(scenarios))
	for i, s := range scenarios {
		rows[i] = scenarioRow(&s)
	}
	o.print(scenarioHeaders, rows, scenarios)
}

// Scenario выводит один сценарий строкой таблицы.
func (o *Output) Scenario(s *ScenarioResponse) {
	o.print(scenarioHeaders, [][]string{scenarioRow(s)}, s)
}

// Executions выводит журнал выполнений.
func (o *Output) Executions(executions []ExecutionResponse) {
	rows := make([][]string, len(executions))
	for i, e := range executions {
		rows[i] = []string{e.ExecutionID, e.ScenarioID, e.ChannelID, e.Status, e.StartedAt, e.FinishedAt}
	}
	o.print(
		[]string{"EXECUTION_ID", "SCENARIO_ID", "CHANNEL_ID", "STATUS", "STARTED", "FINISHED"},
		rows, executions,
	)
}

// Channels выводит список каналов с их состояниями.
func (o *Output) Channels(channels []ChannelResponse) {
	rows := make([][]string, len(channels))
	for i, ch := range channels {
		rows[i] = channelRow(&ch)
	}
	o.print(channelHeaders, rows, channels)
}

// Channel выводит один канал строкой таблицы.
func (o *Output) Channel(ch *ChannelResponse) {
	o.print(channelHeaders, [][]string{channelRow(ch)}, ch)
}

var (
	scenarioHeaders = []string{"SCENARIO_ID", "NAME", "STEPS"}
	channelHeaders  = []string{"CHANNEL_ID", "SCENARIO_ID", "TRANSPORT", "STATE"}
)

func scenarioRow(s *ScenarioResponse) []string {
	return []string{s.ScenarioID, s.Name, strconv.Itoa(len(s.Steps))}
}

func channelRow(ch *ChannelResponse) []string {
	return []string{ch.ChannelID, ch.ScenarioID, ch.Transport, ch.State}
}

// print выводит таблицу или JSON в зависимости от режима.
func (o *Output) print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.table(headers, rows)
}

// table выводит данные через tabwriter.
func (o *Output) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
// Определения сценариев и записи выполнений в таблицу не помещаются,
// команды show печатают их через JSON безусловно.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}
