package realtime

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"docstore/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

const (
	streamKeyPrefix = "docstore:events:"
	resumeKeyPrefix = "docstore:resume:"

	// journalReadBatch is the maximum events fetched per EventsSince call.
	journalReadBatch = 1000

	// journalMaxLength caps stream length when trimming.
	journalMaxLength = 10000
)

// Journal persists change events in Redis Streams so subscriptions survive
// restarts: the watcher's last resume token is stored per collection, and
// events missed while disconnected can be read back with EventsSince.
type Journal struct {
	client *redis.Client
	log    logger.Logger
}

// NewJournal creates a Redis-backed event journal.
func NewJournal(client *redis.Client, log logger.Logger) *Journal {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Journal{
		client: client,
		log:    log.WithComponent("realtime.journal"),
	}
}

func streamKey(collection string) string {
	return streamKeyPrefix + collection
}

func resumeKey(collection string) string {
	return resumeKeyPrefix + collection
}

// Append stores an event in the collection's stream and records its resume
// token as the collection's restart position.
func (j *Journal) Append(ctx context.Context, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	oldData, err := json.Marshal(event.OldData)
	if err != nil {
		return err
	}

	_, err = j.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(event.Collection),
		Values: map[string]interface{}{
			"type":           string(event.Type),
			"collection":     event.Collection,
			"documentId":     event.DocumentID,
			"data":           data,
			"oldData":        oldData,
			"timestamp":      event.Timestamp.UnixNano(),
			"resumeToken":    event.ResumeToken,
			"sequenceNumber": event.SequenceNumber,
		},
	}).Result()
	if err != nil {
		j.log.WithFields(map[string]interface{}{
			"collection":  event.Collection,
			"document_id": event.DocumentID,
			"error":       err.Error(),
		}).Error("Failed to append event to journal")
		return err
	}

	if event.ResumeToken != "" {
		if err := j.client.Set(ctx, resumeKey(event.Collection), event.ResumeToken, 0).Err(); err != nil {
			j.log.WithFields(map[string]interface{}{
				"collection": event.Collection,
				"error":      err.Error(),
			}).Warn("Failed to store resume token")
		}
	}
	return nil
}

// LastResumeToken returns the stored restart position for a collection, empty
// when none has been recorded.
func (j *Journal) LastResumeToken(ctx context.Context, collection string) (string, error) {
	token, err := j.client.Get(ctx, resumeKey(collection)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// EventsSince reads journaled events for a collection after the given journal
// position ("0" or empty for the beginning). The returned events carry their
// journal IDs for subsequent paging.
func (j *Journal) EventsSince(ctx context.Context, collection, sinceID string) ([]Event, error) {
	if sinceID == "" {
		sinceID = "0"
	}

	exists, err := j.client.Exists(ctx, streamKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return []Event{}, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := j.client.XRead(readCtx, &redis.XReadArgs{
		Streams: []string{streamKey(collection), sinceID},
		Count:   journalReadBatch,
		Block:   -1, // non-blocking read
	}).Result()
	if err != nil {
		if err == redis.Nil || err == context.DeadlineExceeded {
			return []Event{}, nil
		}
		return nil, err
	}

	var events []Event
	for _, stream := range res {
		for _, msg := range stream.Messages {
			event, err := parseJournalMessage(msg)
			if err != nil {
				j.log.WithFields(map[string]interface{}{
					"collection": collection,
					"message_id": msg.ID,
					"error":      err.Error(),
				}).Warn("Skipping unparseable journal entry")
				continue
			}
			event.JournalID = msg.ID
			events = append(events, event)
		}
	}
	return events, nil
}

// Trim caps the collection's stream to the journal's maximum length.
func (j *Journal) Trim(ctx context.Context, collection string) error {
	_, err := j.client.XTrimMaxLen(ctx, streamKey(collection), journalMaxLength).Result()
	return err
}

// parseJournalMessage converts a Redis Stream message back into an Event.
func parseJournalMessage(msg redis.XMessage) (Event, error) {
	event := Event{}

	if typeStr, ok := msg.Values["type"].(string); ok {
		event.Type = EventType(typeStr)
	}
	if collection, ok := msg.Values["collection"].(string); ok {
		event.Collection = collection
	}
	if documentID, ok := msg.Values["documentId"].(string); ok {
		event.DocumentID = documentID
	}
	if resumeToken, ok := msg.Values["resumeToken"].(string); ok {
		event.ResumeToken = resumeToken
	}
	if timestampStr, ok := msg.Values["timestamp"].(string); ok {
		if nanos, err := strconv.ParseInt(timestampStr, 10, 64); err == nil {
			event.Timestamp = time.Unix(0, nanos)
		}
	}
	if seqStr, ok := msg.Values["sequenceNumber"].(string); ok {
		if seq, err := strconv.ParseInt(seqStr, 10, 64); err == nil {
			event.SequenceNumber = seq
		}
	}
	if dataStr, ok := msg.Values["data"].(string); ok && dataStr != "" && dataStr != "null" {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(dataStr), &data); err == nil {
			event.Data = data
		}
	}
	if oldDataStr, ok := msg.Values["oldData"].(string); ok && oldDataStr != "" && oldDataStr != "null" {
		var oldData map[string]interface{}
		if err := json.Unmarshal([]byte(oldDataStr), &oldData); err == nil {
			event.OldData = oldData
		}
	}

	return event, nil
}
