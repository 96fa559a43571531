package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"support-agent/handler"
	"support-agent/internal/integrations/paramstore"
	"support-agent/internal/replies"
	"support-agent/internal/repository"
	"support-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	ordersTable := mustEnv("ORDERS_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	copyProfile := envString("COPY_PROFILE", replies.ProfileSupport)
	maxMessageLen := envInt("MAX_MESSAGE_LENGTH", 300)
	crossCustomer := envBool("CROSS_CUSTOMER_LOOKUP", false)
	timezone := envString("TIMEZONE", "Asia/Kolkata")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Error("invalid TIMEZONE", "timezone", timezone, "err", err)
		os.Exit(1)
	}
	baseProfile, err := replies.ProfileByName(copyProfile)
	if err != nil {
		slog.Error("invalid COPY_PROFILE", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	profiles, err := paramstore.NewProfileLoader(ssmClient, paramPrefix, baseProfile)
	if err != nil {
		slog.Error("failed to create profile loader", "err", err)
		os.Exit(1)
	}
	orders, err := repository.New(awsdynamodb.NewFromConfig(cfg), ordersTable)
	if err != nil {
		slog.Error("failed to create orders client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	opts := []usecase.ChatOption{
		usecase.WithMaxMessageLength(maxMessageLen),
		usecase.WithEngineOptions(usecase.WithLocation(loc)),
	}
	if crossCustomer {
		opts = append(opts, usecase.WithSharedLookup(orders))
	}
	chatService, err := usecase.NewChatService(orders, profiles, opts...)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
