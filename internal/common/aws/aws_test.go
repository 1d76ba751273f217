// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSES struct{ mock.Mock }

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*ses.SendEmailOutput)
	return out, args.Error(1)
}

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestSESClient_Send(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return awssdk.ToString(in.Source) == "onboarding@agency.test" &&
			in.Destination.ToAddresses[0] == "owner@acme.com" &&
			awssdk.ToString(in.Message.Subject.Data) == "Welcome" &&
			in.Message.Body.Html == nil
	})).Return(&ses.SendEmailOutput{MessageId: awssdk.String("msg-1")}, nil)

	client := NewSESClientWithAPI(api, "onboarding@agency.test")
	id, err := client.Send(context.Background(), Email{
		To:       []string{"owner@acme.com"},
		Subject:  "Welcome",
		TextBody: "Thanks for onboarding",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendErrors(t *testing.T) {
	api := &mockSES{}
	client := NewSESClientWithAPI(api, "onboarding@agency.test")

	_, err := client.Send(context.Background(), Email{Subject: "x"})
	assert.Error(t, err)

	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	_, err = client.Send(context.Background(), Email{To: []string{"a@b.c"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := &mockSNS{}
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		sender, ok := in.MessageAttributes["AWS.SNS.SMS.SenderID"]
		return ok && awssdk.ToString(sender.StringValue) == "AGENCY" &&
			awssdk.ToString(in.PhoneNumber) == "+15551234567"
	})).Return(&sns.PublishOutput{MessageId: awssdk.String("sms-1")}, nil)

	client := NewSNSClientWithAPI(api, "AGENCY")
	id, err := client.SendSMS(context.Background(), "+15551234567", "New onboarding submitted")

	require.NoError(t, err)
	assert.Equal(t, "sms-1", id)
	api.AssertExpectations(t)

	_, err = client.SendSMS(context.Background(), "", "x")
	assert.Error(t, err)
}
