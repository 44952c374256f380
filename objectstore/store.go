package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/classtree/hierarchy"
	"github.com/jacentio/classtree/internal/shard"
)

// API is the subset of the DynamoDB client the Store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Object is the stored form of a classified object, without its tag.
type Object struct {
	ID          string `dynamodbav:"id"`
	Kind        string `dynamodbav:"kind"`
	Description string `dynamodbav:"description,omitempty"`
	TTL         int64  `dynamodbav:"ttl,omitempty"`
}

// Store reads and writes objects and their class tags.
// It implements hierarchy.SyncAdapter and hierarchy.Describer.
type Store struct {
	client   API
	config   Config
	logger   *slog.Logger
	onChange func(ctx context.Context)
}

var (
	_ hierarchy.SyncAdapter = (*Store)(nil)
	_ hierarchy.Describer   = (*Store)(nil)
)

// New creates a new Store instance.
func New(client API, config Config, logger *slog.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		config: config,
		logger: logger,
	}
}

// OnChange sets the hook invoked by NotifyChanged.
func (s *Store) OnChange(fn func(ctx context.Context)) {
	s.onChange = fn
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// PutObject creates an object. Its tag starts empty.
func (s *Store) PutObject(ctx context.Context, obj Object) error {
	if obj.ID == "" {
		return fmt.Errorf("classtree: object id is required")
	}
	item, err := attributevalue.MarshalMap(obj)
	if err != nil {
		return fmt.Errorf("marshal object: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.ObjectTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %s", ErrObjectExists, obj.ID)
	}
	return err
}

// RemoveObject soft-deletes an object by setting its TTL to now.
// The stream handler sees the TTL and reports the object as removed.
func (s *Store) RemoveObject(ctx context.Context, objectID hierarchy.ObjectID) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.ObjectTable),
		Key:                 s.key(objectID),
		UpdateExpression:    aws.String("SET #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_exists(id) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": &types.AttributeValueMemberN{
				Value: strconv.FormatInt(time.Now().Unix(), 10),
			},
		},
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, objectID)
	}
	return err
}

// TagObject writes the class tag of an object, or removes it when classID is
// uuid.Nil. Deleted or missing objects yield ErrObjectNotFound.
func (s *Store) TagObject(ctx context.Context, objectID hierarchy.ObjectID, classID hierarchy.ClassID) error {
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.ObjectTable),
		Key:                 s.key(objectID),
		ConditionExpression: aws.String(existsCondition),
		ExpressionAttributeNames: map[string]string{
			"#tag":   s.config.TagAttribute,
			"#tagpk": "tag_pk",
			"#ttl":   "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": nowValue(),
		},
	}

	if classID == uuid.Nil {
		input.UpdateExpression = aws.String("REMOVE #tag, #tagpk")
	} else {
		ref := shard.ClassRef(classID.String())
		input.UpdateExpression = aws.String("SET #tag = :tag, #tagpk = :tagpk")
		input.ExpressionAttributeValues[":tag"] = &types.AttributeValueMemberS{Value: classID.String()}
		input.ExpressionAttributeValues[":tagpk"] = &types.AttributeValueMemberS{
			Value: shard.TagPK(ref, string(objectID), s.config.NumShards),
		}
	}

	_, err := s.client.UpdateItem(ctx, input)
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, objectID)
	}
	if err != nil {
		return fmt.Errorf("tag object %s: %w", objectID, err)
	}
	return nil
}

// ObjectExists reports whether an object is present and not deleted.
func (s *Store) ObjectExists(ctx context.Context, objectID hierarchy.ObjectID) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.config.ObjectTable),
		Key:                  s.key(objectID),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("id, #ttl"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
	})
	if err != nil {
		return false, err
	}
	return result.Item != nil && !IsDeleted(result.Item), nil
}

// Describe returns the kind and description of an object.
func (s *Store) Describe(ctx context.Context, objectID hierarchy.ObjectID) (hierarchy.ObjectInfo, bool, error) {
	obj, ok, err := s.GetObject(ctx, objectID)
	if err != nil || !ok {
		return hierarchy.ObjectInfo{}, false, err
	}
	return hierarchy.ObjectInfo{
		ID:          hierarchy.ObjectID(obj.ID),
		Kind:        hierarchy.ParseKind(obj.Kind),
		Description: obj.Description,
	}, true, nil
}

// GetObject retrieves an object, reporting false if it is missing or deleted.
func (s *Store) GetObject(ctx context.Context, objectID hierarchy.ObjectID) (Object, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.ObjectTable),
		Key:       s.key(objectID),
	})
	if err != nil {
		return Object{}, false, err
	}
	if result.Item == nil || IsDeleted(result.Item) {
		return Object{}, false, nil
	}

	var obj Object
	if err := attributevalue.UnmarshalMap(result.Item, &obj); err != nil {
		return Object{}, false, fmt.Errorf("unmarshal object %s: %w", objectID, err)
	}
	return obj, true, nil
}

// NotifyChanged invokes the OnChange hook, if any.
func (s *Store) NotifyChanged(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

// ObjectsTagged returns the live objects tagged with classID, sorted.
// With more than one shard the per-shard queries run in parallel.
func (s *Store) ObjectsTagged(ctx context.Context, classID hierarchy.ClassID) ([]hierarchy.ObjectID, error) {
	pks := shard.ShardPKs(shard.ClassRef(classID.String()), s.config.NumShards)

	// Fast path for single shard (default)
	if len(pks) == 1 {
		objects, err := s.queryTagShard(ctx, pks[0])
		if err != nil {
			return nil, err
		}
		slices.Sort(objects)
		return objects, nil
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	var all []hierarchy.ObjectID
	var wg sync.WaitGroup
	errs := make(chan error, len(pks))

	for shardNum, pk := range pks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			objects, err := s.queryTagShard(ctx, pk)
			if err != nil {
				errs <- fmt.Errorf("shard %02x: %w", shardNum, err)
				return
			}

			mu.Lock()
			all = append(all, objects...)
			mu.Unlock()
		}()
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(all)
	return all, nil
}

func (s *Store) queryTagShard(ctx context.Context, pk string) ([]hierarchy.ObjectID, error) {
	var objects []hierarchy.ObjectID

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.ObjectTable),
		IndexName:              aws.String(s.config.TagIndex),
		KeyConditionExpression: aws.String("#tagpk = :pk"),
		FilterExpression:       aws.String(liveFilter),
		ExpressionAttributeNames: map[string]string{
			"#tagpk": "tag_pk",
			"#ttl":   "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":  &types.AttributeValueMemberS{Value: pk},
			":now": nowValue(),
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if v, ok := item["id"].(*types.AttributeValueMemberS); ok {
				objects = append(objects, hierarchy.ObjectID(v.Value))
			}
		}
	}

	return objects, nil
}

// ScanTags returns the class tag of every live tagged object.
// Tags that are not valid class ids are logged and skipped.
func (s *Store) ScanTags(ctx context.Context) (map[hierarchy.ObjectID]hierarchy.ClassID, error) {
	tags := make(map[hierarchy.ObjectID]hierarchy.ClassID)

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:            aws.String(s.config.ObjectTable),
		ProjectionExpression: aws.String("id, #tag"),
		FilterExpression:     aws.String("attribute_exists(#tag) AND " + liveFilter),
		ExpressionAttributeNames: map[string]string{
			"#tag": s.config.TagAttribute,
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": nowValue(),
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		for _, item := range page.Items {
			id, ok := item["id"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			tag, ok := item[s.config.TagAttribute].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			classID, err := uuid.Parse(tag.Value)
			if err != nil {
				s.logger.Warn("skipping invalid class tag",
					"objectID", id.Value,
					"tag", tag.Value,
					"error", err,
				)
				continue
			}
			tags[hierarchy.ObjectID(id.Value)] = classID
		}
	}

	return tags, nil
}

func (s *Store) key(objectID hierarchy.ObjectID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: string(objectID)},
	}
}
