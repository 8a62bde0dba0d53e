package main

import (
	"context"
	"log"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/drivers/database"
	"maternity-service/internal/app/services/store/mongodb"
	"maternity-service/internal/pkg/constvars"
	"time"
)

// Creates the indexes of the mongo resource store. Safe to run repeatedly.
func main() {
	driverConfig := config.NewDriverConfig()
	client := database.NewMongoDB(driverConfig)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	defer client.Disconnect(ctx)

	names, err := mongodb.EnsureIndexes(ctx, client.Database(driverConfig.MongoDB.DbName), constvars.MongoCollectionResources)
	if err != nil {
		log.Fatalf("Error creating indexes: %v", err)
	}

	log.Printf("Ensured %d indexes: %v\n", len(names), names)
}
