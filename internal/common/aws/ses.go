// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the part of the SES API used for onboarding mail.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Email is a single outgoing message.
type Email struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

type SESClient struct {
	api  SESService
	from string
}

func NewSESClient(cfg awssdk.Config, from string) *SESClient {
	return NewSESClientWithAPI(ses.NewFromConfig(cfg), from)
}

func NewSESClientWithAPI(api SESService, from string) *SESClient {
	return &SESClient{api: api, from: from}
}

// Send delivers msg and returns the SES message ID.
func (s *SESClient) Send(ctx context.Context, msg Email) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("email has no recipients")
	}

	body := &types.Body{Text: &types.Content{Data: awssdk.String(msg.TextBody), Charset: awssdk.String("UTF-8")}}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: awssdk.String(msg.HTMLBody), Charset: awssdk.String("UTF-8")}
	}

	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: msg.To},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(msg.Subject), Charset: awssdk.String("UTF-8")},
			Body:    body,
		},
		Source: awssdk.String(s.from),
	})
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	return awssdk.ToString(out.MessageId), nil
}
