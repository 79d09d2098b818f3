package tool

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBExecutor is a Tool backed by a DynamoDB Query against one
// table, bound to a DbToolSpec with Driver == DbDynamoDB. Query treats
// DbToolSpec.Query as the table name and ParamKeys[0] as the partition
// key's attribute name, with the tool call's matching input value as the
// key condition.
type DynamoDBExecutor struct {
	spec   *DbToolSpec
	client *dynamodb.Client
}

func NewDynamoDBExecutor(ctx context.Context, spec *DbToolSpec) (*DynamoDBExecutor, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("dynamodb tool %q: %w", spec.Name, err)
	}
	return &DynamoDBExecutor{spec: spec, client: dynamodb.NewFromConfig(cfg)}, nil
}

func (d *DynamoDBExecutor) Name() string { return d.spec.Name }

func (d *DynamoDBExecutor) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if len(d.spec.ParamKeys) == 0 {
		return nil, fmt.Errorf("dynamodb tool %q: no partition key configured", d.spec.Name)
	}
	pkName := d.spec.ParamKeys[0]
	pkValue := fmt.Sprintf("%v", input[pkName])

	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.spec.Query),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": pkName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb tool %q: query failed: %w", d.spec.Name, err)
	}

	items := make([]map[string]interface{}, 0, len(out.Items))
	for _, item := range out.Items {
		items = append(items, flattenAttributeMap(item))
	}
	return map[string]interface{}{"rows": items, "count": len(items)}, nil
}

func flattenAttributeMap(item map[string]types.AttributeValue) map[string]interface{} {
	out := make(map[string]interface{}, len(item))
	for k, v := range item {
		switch av := v.(type) {
		case *types.AttributeValueMemberS:
			out[k] = av.Value
		case *types.AttributeValueMemberN:
			out[k] = av.Value
		case *types.AttributeValueMemberBOOL:
			out[k] = av.Value
		default:
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
