package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTxnRunner wraps a function in one MongoDB multi-document transaction.
// The session context it passes down must be used for every collection call
// inside fn, which the repositories do by taking ctx on each method.
type MongoTxnRunner struct {
	client *mongo.Client
}

func NewMongoTxnRunner(client *mongo.Client) *MongoTxnRunner {
	return &MongoTxnRunner{client: client}
}

func (r *MongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
