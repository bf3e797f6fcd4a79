package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"wayfarer/pkg/spatial"
)

// LocationEvent is an audit-trail entry tying an account action to where it
// happened.
type LocationEvent struct {
	ID          string              `dynamodbav:"id"`
	AccountID   string              `dynamodbav:"accountid"`
	Timestamp   int64               `dynamodbav:"timestamp"`
	Location    spatial.Coordinates `dynamodbav:"location"`
	EventType   string              `dynamodbav:"event_type"`
	EventParams string              `dynamodbav:"event_params,omitempty"`
}

// Locations is the location-event repository.
type Locations struct {
	client API
	table  string
}

// NewLocations binds the repository to its table.
func NewLocations(client API, table string) *Locations {
	return &Locations{client: client, table: table}
}

// Record appends an event. A zero timestamp is stamped with the current
// time; a missing id is minted.
func (l *Locations) Record(ctx context.Context, event LocationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}
	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("%w: encoding location event: %v", ErrStore, err)
	}
	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: writing location event: %v", ErrStore, err)
	}
	return nil
}
