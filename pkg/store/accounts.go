package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Device is one client device attached to an account.
type Device struct {
	UID        string `dynamodbav:"uid" json:"uid"`
	Model      string `dynamodbav:"model" json:"model"`
	Platform   string `dynamodbav:"platform" json:"platform"`
	OSVersion  string `dynamodbav:"osversion" json:"osversion"`
	AppVersion string `dynamodbav:"appversion" json:"appversion"`
}

// Fingerprint collapses the device identity into a stable hash so the
// device list carries each physical device once.
func (d Device) Fingerprint() string {
	sum := sha256.Sum256([]byte(d.UID + "|" + d.Model + "|" + d.Platform))
	return hex.EncodeToString(sum[:])
}

// Account is one signed-up caller keyed by uid (the phone number).
type Account struct {
	UID       string   `dynamodbav:"uid"`
	CreatedAt int64    `dynamodbav:"createdat"`
	Devices   []Device `dynamodbav:"devices"`
}

// HasDevice reports whether the fingerprint is already on the device list.
func (a *Account) HasDevice(fingerprint string) bool {
	for _, d := range a.Devices {
		if d.Fingerprint() == fingerprint {
			return true
		}
	}
	return false
}

// Accounts is the account repository.
type Accounts struct {
	client API
	table  string
}

// NewAccounts binds the repository to its table.
func NewAccounts(client API, table string) *Accounts {
	return &Accounts{client: client, table: table}
}

// Get fetches the account for uid. An absent account returns (nil, nil).
func (a *Accounts) Get(ctx context.Context, uid string) (*Account, error) {
	out, err := a.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(a.table),
		Key: map[string]types.AttributeValue{
			"uid": &types.AttributeValueMemberS{Value: uid},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading account %s: %v", ErrStore, uid, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var account Account
	if err := attributevalue.UnmarshalMap(out.Item, &account); err != nil {
		return nil, fmt.Errorf("%w: decoding account %s: %v", ErrStore, uid, err)
	}
	return &account, nil
}

// Signup creates the account with its first device.
func (a *Accounts) Signup(ctx context.Context, uid string, device Device) (*Account, error) {
	account := &Account{
		UID:       uid,
		CreatedAt: time.Now().UTC().Unix(),
		Devices:   []Device{device},
	}
	if err := a.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Save writes the full account record.
func (a *Accounts) Save(ctx context.Context, account *Account) error {
	item, err := attributevalue.MarshalMap(account)
	if err != nil {
		return fmt.Errorf("%w: encoding account %s: %v", ErrStore, account.UID, err)
	}
	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: writing account %s: %v", ErrStore, account.UID, err)
	}
	return nil
}
