package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type event struct {
	Domain string `json:"domain"`
}

func (e event) Attributes() map[string]string {
	return map[string]string{"domain": e.Domain}
}

func newFakeClient(t *testing.T) (*pstest.Server, []option.ClientOption) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, []option.ClientOption{option.WithGRPCConn(conn)}
}

func TestPublishSendsJSONWithAttributes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, opts := newFakeClient(t)

	client, err := pubsub.NewClient(ctx, "project-id", opts...)
	require.NoError(t, err)
	defer client.Close()
	_, err = client.CreateTopic(ctx, "profiles")
	require.NoError(t, err)

	pub := New(client)
	defer func() { require.NoError(t, pub.Close()) }()

	id, err := pub.Publish(ctx, "profiles", event{Domain: "acme-goods.com"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got event
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, "acme-goods.com", got.Domain)
	require.Equal(t, "acme-goods.com", msgs[0].Attributes["domain"])
	require.Equal(t, "application/json", msgs[0].Attributes["content-type"])
}

func TestDialRequiresExistingTopic(t *testing.T) {
	t.Parallel()

	_, opts := newFakeClient(t)
	_, err := Dial(context.Background(), "project-id", "missing", opts...)
	require.ErrorContains(t, err, "does not exist")
}

func TestPublishWithoutClient(t *testing.T) {
	t.Parallel()

	var p *Publisher
	_, err := p.Publish(context.Background(), "profiles", event{})
	require.Error(t, err)
}
