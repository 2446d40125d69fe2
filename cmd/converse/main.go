package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dialog-backend/internal/client"
	"dialog-backend/internal/logging"
)

var (
	baseURL      = flag.String("url", envOrDefault("CHATBOT_URL", client.DefaultBaseURL), "Base URL of the chatbot server")
	token        = flag.String("token", os.Getenv("CHATBOT_TOKEN"), "Bearer token for the converse endpoint")
	conversation = flag.String("conversation", "", "Conversation id (a new one is generated when empty)")
	verbose      = flag.Bool("v", false, "Log requests to stderr")
)

func main() {
	flag.Parse()

	level := zapcore.WarnLevel
	if *verbose {
		level = zapcore.DebugLevel
	}
	logger := logging.NewLogger(logging.LoggerParameters{
		Level:   level,
		Writers: []io.Writer{os.Stderr},
	})
	defer logger.Sync()

	if *conversation == "" {
		*conversation = uuid.NewString()
	}

	c, err := client.New(&client.Parameters{
		Logger:       logger,
		BaseURL:      *baseURL,
		Token:        *token,
		Conversation: *conversation,
	})
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flag.NArg() > 0 {
		if err := say(ctx, c, strings.Join(flag.Args(), " "), os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := chat(ctx, c, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// chat sends every non-blank line of in and prints each reply.
func chat(ctx context.Context, c *client.Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := say(ctx, c, line, out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func say(ctx context.Context, c *client.Client, message string, out io.Writer) error {
	reply, err := c.Converse(ctx, message)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, reply)
	return err
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
