package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(client, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	// Filings collection indexes
	filingsCollection := db.Collection("filings")
	filingIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ingestion.status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "classification.code", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "current_status", Value: 1}},
		},
	}
	_, err := filingsCollection.Indexes().CreateMany(context.Background(), filingIndexes)
	if err != nil {
		return err
	}

	// Jobs collection indexes
	jobsCollection := db.Collection("jobs")
	jobIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "filing_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	_, err = jobsCollection.Indexes().CreateMany(context.Background(), jobIndexes)
	if err != nil {
		return err
	}

	// Snapshots collection indexes
	snapshotsCollection := db.Collection("similarity_snapshots")
	snapshotIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "target_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "compared_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	_, err = snapshotsCollection.Indexes().CreateMany(context.Background(), snapshotIndexes)
	if err != nil {
		return err
	}

	return nil
}
