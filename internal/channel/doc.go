// Package channel реализует менеджер жизненного цикла каналов.
//
// Канал привязывает один источник входящих событий (очередь сообщений
// или cron-расписание) к сценарию. Менеджер держит по одной
// долгоживущей задаче-слушателю на канал:
//
//	Unloaded → Loading → Polling → Stopping → Unloaded
//
// На каждое входящее событие слушатель строит свежий контекст из тела
// события и метаданных канала, загружает привязанный сценарий и один
// раз вызывает движок. Ошибки выполнения логируются per-event и никогда
// не роняют слушатель; сбой или перезапуск одного канала не прерывает
// слушателей остальных.
package channel
