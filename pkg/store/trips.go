package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"wayfarer/pkg/routing"
)

// Trip statuses as stored. A trip that is not in the table yet is pending;
// pending is never written.
const (
	StatusReady  = "ready"
	StatusFailed = "failed"
)

// TripRecord is one optimization outcome keyed by trip id. Request and
// Response hold the serialized wire documents.
type TripRecord struct {
	ID        string `dynamodbav:"id"`
	Timestamp int64  `dynamodbav:"timestamp"`
	AccountID string `dynamodbav:"accountid"`
	Status    string `dynamodbav:"status"`
	Region    string `dynamodbav:"region"`
	Request   string `dynamodbav:"request"`
	Response  string `dynamodbav:"response,omitempty"`
	Geometry  string `dynamodbav:"geometry,omitempty"`
	Distance  int64  `dynamodbav:"distance"`
	Duration  int64  `dynamodbav:"duration"`
	Error     string `dynamodbav:"error,omitempty"`
}

// Trips is the trip-outcome repository.
type Trips struct {
	client API
	table  string
}

// NewTrips binds the repository to its table.
func NewTrips(client API, table string) *Trips {
	return &Trips{client: client, table: table}
}

// SaveReady records a successful optimization.
func (t *Trips) SaveReady(ctx context.Context, req *routing.TripRequest, trip *routing.OptimizedTrip) error {
	request, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrStore, err)
	}
	response, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("%w: encoding response: %v", ErrStore, err)
	}
	total := trip.TotalCost()
	return t.put(ctx, TripRecord{
		ID:        req.Meta.ID,
		Timestamp: time.Now().UTC().Unix(),
		AccountID: req.Meta.AccountID,
		Status:    StatusReady,
		Region:    req.Meta.Region,
		Request:   string(request),
		Response:  string(response),
		Geometry:  trip.Geometry,
		Distance:  total.Distance,
		Duration:  total.Duration,
	})
}

// SaveFailed records a permanently failed optimization.
func (t *Trips) SaveFailed(ctx context.Context, req *routing.TripRequest, cause error) error {
	request, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrStore, err)
	}
	return t.put(ctx, TripRecord{
		ID:        req.Meta.ID,
		Timestamp: time.Now().UTC().Unix(),
		AccountID: req.Meta.AccountID,
		Status:    StatusFailed,
		Region:    req.Meta.Region,
		Request:   string(request),
		Error:     cause.Error(),
	})
}

// Get fetches the record for id. An absent record returns (nil, nil).
func (t *Trips) Get(ctx context.Context, id string) (*TripRecord, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading trip %s: %v", ErrStore, id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var record TripRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("%w: decoding trip %s: %v", ErrStore, id, err)
	}
	return &record, nil
}

// OptimizedTrip decodes the stored response document.
func (r *TripRecord) OptimizedTrip() (*routing.OptimizedTrip, error) {
	if r.Status != StatusReady {
		return nil, fmt.Errorf("%w: trip %s is %s", ErrStore, r.ID, r.Status)
	}
	var trip routing.OptimizedTrip
	if err := json.Unmarshal([]byte(r.Response), &trip); err != nil {
		return nil, fmt.Errorf("%w: decoding stored trip %s: %v", ErrStore, r.ID, err)
	}
	return &trip, nil
}

func (t *Trips) put(ctx context.Context, record TripRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("%w: encoding trip %s: %v", ErrStore, record.ID, err)
	}
	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: writing trip %s: %v", ErrStore, record.ID, err)
	}
	return nil
}
