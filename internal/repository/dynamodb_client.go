package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dining-concierge/internal/domain"
)

const (
	attrEmail           = "email"
	attrLocation        = "location"
	attrCuisine         = "cuisine"
	attrDiningTime      = "dining_time"
	attrPartySize       = "party_size"
	attrRestaurantNames = "restaurant_names"

	attrName    = "Name"
	attrAddress = "Address"

	defaultRestaurantKey = "BusinessID"
)

// dynamodbAPI is the minimal DynamoDB interface required by the clients.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// PreferenceClient wraps the DynamoDB table holding each user's last search.
type PreferenceClient struct {
	api       dynamodbAPI
	tableName string
}

// NewPreferenceClient creates a PreferenceClient for tableName.
func NewPreferenceClient(api dynamodbAPI, tableName string) (*PreferenceClient, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &PreferenceClient{api: api, tableName: tableName}, nil
}

// GetPreference returns the stored record for email. The boolean is false when
// no record exists.
func (c *PreferenceClient) GetPreference(ctx context.Context, email string) (domain.PreferenceRecord, bool, error) {
	if strings.TrimSpace(email) == "" {
		return domain.PreferenceRecord{}, false, errors.New("repository: GetPreference: email is required")
	}
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			attrEmail: &types.AttributeValueMemberS{Value: email},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.PreferenceRecord{}, false, fmt.Errorf("repository: GetPreference get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.PreferenceRecord{}, false, nil
	}
	rec, err := itemToPreference(out.Item)
	if err != nil {
		return domain.PreferenceRecord{}, false, fmt.Errorf("repository: GetPreference decode: %w", err)
	}
	return rec, true, nil
}

// PutPreference writes rec, replacing any previous record for the same email.
func (c *PreferenceClient) PutPreference(ctx context.Context, rec domain.PreferenceRecord) error {
	if strings.TrimSpace(rec.Email) == "" {
		return errors.New("repository: PutPreference: email is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      preferenceItem(rec),
	})
	if err != nil {
		return fmt.Errorf("repository: PutPreference: %w", err)
	}
	return nil
}

// RestaurantClient wraps the DynamoDB table of restaurant details.
type RestaurantClient struct {
	api       dynamodbAPI
	tableName string
	keyAttr   string
}

// NewRestaurantClient creates a RestaurantClient. keyAttr names the partition
// key attribute and defaults to BusinessID.
func NewRestaurantClient(api dynamodbAPI, tableName, keyAttr string) (*RestaurantClient, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	keyAttr = strings.TrimSpace(keyAttr)
	if keyAttr == "" {
		keyAttr = defaultRestaurantKey
	}
	return &RestaurantClient{api: api, tableName: tableName, keyAttr: keyAttr}, nil
}

// GetRestaurant returns the restaurant with the given id. The boolean is false
// when the table has no such item. The table must be keyed by the configured
// key attribute alone; a table with a sort key rejects the lookup.
func (c *RestaurantClient) GetRestaurant(ctx context.Context, id string) (domain.Restaurant, bool, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Restaurant{}, false, errors.New("repository: GetRestaurant: id is required")
	}
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			c.keyAttr: &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return domain.Restaurant{}, false, fmt.Errorf("repository: GetRestaurant get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Restaurant{}, false, nil
	}

	// Name and Address are optional in the scraped data set.
	name, _ := strAttr(out.Item, attrName)
	address, _ := strAttr(out.Item, attrAddress)
	return domain.Restaurant{BusinessID: id, Name: name, Address: address}, true, nil
}

func itemToPreference(item map[string]types.AttributeValue) (domain.PreferenceRecord, error) {
	email, err := strAttr(item, attrEmail)
	if err != nil {
		return domain.PreferenceRecord{}, err
	}
	location, _ := strAttr(item, attrLocation)
	cuisine, _ := strAttr(item, attrCuisine)
	diningTime, _ := strAttr(item, attrDiningTime)
	partySize, _ := strAttr(item, attrPartySize)

	var names []string
	if v, ok := item[attrRestaurantNames]; ok {
		l, ok := v.(*types.AttributeValueMemberL)
		if !ok {
			return domain.PreferenceRecord{}, fmt.Errorf("repository: attribute %q is not a list", attrRestaurantNames)
		}
		for _, elem := range l.Value {
			s, ok := elem.(*types.AttributeValueMemberS)
			if !ok {
				return domain.PreferenceRecord{}, fmt.Errorf("repository: attribute %q holds a non-string", attrRestaurantNames)
			}
			names = append(names, s.Value)
		}
	}

	return domain.PreferenceRecord{
		Email:           email,
		Location:        location,
		Cuisine:         cuisine,
		DiningTime:      diningTime,
		PartySize:       partySize,
		RestaurantNames: names,
	}, nil
}

func preferenceItem(rec domain.PreferenceRecord) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		attrEmail:      &types.AttributeValueMemberS{Value: rec.Email},
		attrLocation:   &types.AttributeValueMemberS{Value: rec.Location},
		attrCuisine:    &types.AttributeValueMemberS{Value: rec.Cuisine},
		attrDiningTime: &types.AttributeValueMemberS{Value: rec.DiningTime},
		attrPartySize:  &types.AttributeValueMemberS{Value: rec.PartySize},
	}
	if len(rec.RestaurantNames) > 0 {
		names := make([]types.AttributeValue, 0, len(rec.RestaurantNames))
		for _, n := range rec.RestaurantNames {
			names = append(names, &types.AttributeValueMemberS{Value: n})
		}
		item[attrRestaurantNames] = &types.AttributeValueMemberL{Value: names}
	}
	return item
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
