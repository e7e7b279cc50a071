package dynamodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/w-h-a/helpdesk/history"
)

// TableAPI is the slice of the dynamodb client the history needs.
type TableAPI interface {
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type dynamoHistory struct {
	options history.Options
	client  TableAPI
}

// List pages through the user's partition in the table's sort key order.
func (d *dynamoHistory) List(ctx context.Context, userId string) ([]history.Turn, error) {
	paginator := dynamodb.NewQueryPaginator(d.client, &dynamodb.QueryInput{
		TableName:              aws.String(d.options.Table),
		KeyConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userId},
		},
	})

	turns := []history.Turn{}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		var batch []history.Turn
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal turns: %w", err)
		}

		turns = append(turns, batch...)
	}

	return turns, nil
}

func (d *dynamoHistory) Append(ctx context.Context, turn history.Turn) error {
	item, err := attributevalue.MarshalMap(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.options.Table),
		Item:      item,
	}); err != nil {
		return err
	}

	return nil
}

func NewHistory(opts ...history.Option) history.History {
	options := history.NewOptions(opts...)

	d := &dynamoHistory{
		options: options,
	}

	if c, ok := ClientFrom(options.Context); ok {
		d.client = c
		return d
	}

	cfg, ok := AwsConfigFrom(options.Context)
	if !ok {
		var err error
		cfg, err = awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			detail := "failed to load aws config for dynamodb history"
			slog.ErrorContext(context.Background(), detail, "error", err)
			panic(detail)
		}
	}

	d.client = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if len(options.Location) > 0 {
			o.BaseEndpoint = aws.String(options.Location)
		}
	})

	return d
}
