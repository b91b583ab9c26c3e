package channel

import (
	"errors"
	"fmt"
)

// Ошибки менеджера каналов.
var (
	// ErrChannelNotFound — канал с таким ID не загружен.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrMissingCredential — у транспорта канала нет учётных данных.
	ErrMissingCredential = errors.New("transport credential is missing")

	// ErrUnknownTransport — неизвестный вид транспорта.
	ErrUnknownTransport = errors.New("unknown transport kind")
)

// ChannelInitError — слушатель канала не удалось запустить.
//
// Канал остаётся в состоянии Unloaded; остальные каналы не затронуты.
type ChannelInitError struct {
	ChannelID string
	Err       error
}

func (e *ChannelInitError) Error() string {
	return fmt.Sprintf("channel %s: init failed: %v", e.ChannelID, e.Err)
}

func (e *ChannelInitError) Unwrap() error {
	return e.Err
}

// NewChannelInitError создаёт ChannelInitError.
func NewChannelInitError(channelID string, err error) *ChannelInitError {
	return &ChannelInitError{ChannelID: channelID, Err: err}
}
