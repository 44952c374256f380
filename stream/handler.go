// Package stream turns DynamoDB Streams records from the objects table into
// registry notifications.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/jacentio/classtree/hierarchy"
)

// Poster accepts notifications for the registry's owner goroutine.
// *hierarchy.Inbox implements it.
type Poster interface {
	Post(ctx context.Context, n hierarchy.Notification) error
}

// Handler processes DynamoDB stream events for the objects table.
type Handler struct {
	inbox   Poster
	tagAttr string
	logger  *slog.Logger
}

// NewHandler creates a new stream handler. tagAttr names the class tag
// attribute and defaults to "class_tag".
func NewHandler(inbox Poster, tagAttr string, logger *slog.Logger) *Handler {
	if tagAttr == "" {
		tagAttr = "class_tag"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		inbox:   inbox,
		tagAttr: tagAttr,
		logger:  logger,
	}
}

// HandleObjectEvents posts a notification for every relevant record.
// This function is designed to be used as an AWS Lambda handler; a failed
// post fails the batch so it is retried.
func (h *Handler) HandleObjectEvents(ctx context.Context, event events.DynamoDBEvent) error {
	posted := 0
	for _, record := range event.Records {
		n, ok := h.notification(record)
		if !ok {
			continue
		}
		if err := h.inbox.Post(ctx, n); err != nil {
			h.logger.Error("failed to post notification",
				"eventID", record.EventID,
				"objectID", n.ObjectID,
				"kind", n.Kind,
				"error", err,
			)
			return fmt.Errorf("post %s for %s: %w", n.Kind, n.ObjectID, err)
		}
		posted++
	}

	h.logger.Info("object events processed",
		"records", len(event.Records),
		"notifications", posted,
	)
	return nil
}

// notification maps a single stream record, reporting false for records
// that need no notification.
func (h *Handler) notification(record events.DynamoDBEventRecord) (hierarchy.Notification, bool) {
	objectID := objectIDOf(record)
	if objectID == "" {
		h.logger.Warn("skipping record without object id", "eventID", record.EventID)
		return hierarchy.Notification{}, false
	}

	switch record.EventName {
	case "REMOVE":
		return hierarchy.Notification{Kind: hierarchy.ObjectRemoved, ObjectID: objectID}, true

	case "INSERT":
		tag := getStringAttr(record.Change.NewImage, h.tagAttr)
		if tag == "" {
			return hierarchy.Notification{}, false
		}
		return h.tagChanged(record, objectID, tag)

	case "MODIFY":
		oldTTL := getNumberAttr(record.Change.OldImage, "ttl")
		newTTL := getNumberAttr(record.Change.NewImage, "ttl")

		// A newly set TTL is a soft delete
		if oldTTL == 0 && newTTL != 0 {
			return hierarchy.Notification{Kind: hierarchy.ObjectRemoved, ObjectID: objectID}, true
		}

		oldTag := getStringAttr(record.Change.OldImage, h.tagAttr)
		newTag := getStringAttr(record.Change.NewImage, h.tagAttr)
		if oldTag != newTag {
			return h.tagChanged(record, objectID, newTag)
		}
		return hierarchy.Notification{Kind: hierarchy.ObjectChanged, ObjectID: objectID}, true
	}

	return hierarchy.Notification{}, false
}

func (h *Handler) tagChanged(record events.DynamoDBEventRecord, objectID hierarchy.ObjectID, tag string) (hierarchy.Notification, bool) {
	classID := uuid.Nil
	if tag != "" {
		var err error
		classID, err = uuid.Parse(tag)
		if err != nil {
			h.logger.Warn("skipping invalid class tag",
				"eventID", record.EventID,
				"objectID", objectID,
				"tag", tag,
				"error", err,
			)
			return hierarchy.Notification{}, false
		}
	}
	return hierarchy.Notification{Kind: hierarchy.TagChanged, ObjectID: objectID, ClassID: classID}, true
}

// objectIDOf reads the id from the record keys, falling back to the images.
func objectIDOf(record events.DynamoDBEventRecord) hierarchy.ObjectID {
	for _, image := range []map[string]events.DynamoDBAttributeValue{
		record.Change.Keys,
		record.Change.NewImage,
		record.Change.OldImage,
	} {
		if id := getStringAttr(image, "id"); id != "" {
			return hierarchy.ObjectID(id)
		}
	}
	return ""
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
