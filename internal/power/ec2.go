package power

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// EC2 implements API on Amazon EC2.
type EC2 struct {
	client *ec2.Client
}

// NewEC2 builds a client for region. Static credentials are used when
// accessKeyID is set; otherwise the default credential chain applies.
func NewEC2(ctx context.Context, region, accessKeyID, secretAccessKey string) (*EC2, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &EC2{client: ec2.NewFromConfig(cfg)}, nil
}

func (e *EC2) StartInstance(ctx context.Context, id string) error {
	_, err := e.client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{id},
	})
	return err
}

func (e *EC2) StopInstance(ctx context.Context, id string, hibernate bool) error {
	_, err := e.client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{id},
		Hibernate:   aws.Bool(hibernate),
	})
	return err
}

// DescribeStatus includes instances that are not running, which EC2 omits
// by default.
func (e *EC2) DescribeStatus(ctx context.Context, id string) ([]InstanceStatus, error) {
	out, err := e.client.DescribeInstanceStatus(ctx, &ec2.DescribeInstanceStatusInput{
		InstanceIds:         []string{id},
		IncludeAllInstances: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	statuses := make([]InstanceStatus, 0, len(out.InstanceStatuses))
	for _, s := range out.InstanceStatuses {
		if s.InstanceState == nil {
			continue
		}
		statuses = append(statuses, InstanceStatus{
			ID:   aws.ToString(s.InstanceId),
			Code: aws.ToInt32(s.InstanceState.Code),
		})
	}
	return statuses, nil
}
