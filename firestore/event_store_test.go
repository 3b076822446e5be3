package firestore_test

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/gcloud"

	"github.com/get-eventually/eventcore/event"
	eventcorefirestore "github.com/get-eventually/eventcore/firestore"
)

const projectID = "eventcore-test"

func TestEventStore(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}

	ctx := context.Background()

	container, err := gcloud.RunFirestore(
		ctx,
		"gcr.io/google.com/cloudsdktool/cloud-sdk:367.0.0-emulators",
		gcloud.WithProjectID(projectID),
	)
	require.NoError(t, err)

	defer func() {
		assert.NoError(t, container.Terminate(ctx))
	}()

	t.Setenv("FIRESTORE_EMULATOR_HOST", container.URI)

	client, err := firestore.NewClient(ctx, projectID)
	require.NoError(t, err)

	defer client.Close()

	registry := event.NewSuiteRegistry()

	suite.Run(t, event.NewStoreSuite(func() event.Store {
		return eventcorefirestore.NewEventStore(client, registry, eventcorefirestore.WithMaxAttempts(20))
	}))
}
