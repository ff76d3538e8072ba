package store

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// startMongoContainer runs mongo:7 through the Docker CLI and returns its
// connection URI and a cleanup function.
func startMongoContainer(ctx context.Context) (string, func(), error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return "", nil, fmt.Errorf("docker not available: %w", err)
	}

	port, err := getFreePort()
	if err != nil {
		return "", nil, fmt.Errorf("find free port: %w", err)
	}
	containerName := fmt.Sprintf("curalink-store-test-%d", port)
	_ = exec.CommandContext(ctx, "docker", "rm", "-f", containerName).Run()

	cmd := exec.CommandContext(ctx, "docker", "run",
		"--name", containerName,
		"-d",
		"-p", fmt.Sprintf("%d:27017", port),
		"mongo:7",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", nil, fmt.Errorf("docker run: %w\noutput: %s", err, string(output))
	}
	containerID := strings.TrimSpace(string(output))

	cleanup := func() {
		_ = exec.Command("docker", "rm", "-f", containerID).Run()
	}

	uri := fmt.Sprintf("mongodb://localhost:%d", port)
	if err := waitForMongo(ctx, uri, 60*time.Second); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("wait for mongo: %w", err)
	}
	return uri, cleanup, nil
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// waitForMongo polls until the server answers a primary ping.
func waitForMongo(ctx context.Context, uri string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := pingMongo(ctx, uri); err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("mongo not ready after %v", timeout)
}

func pingMongo(ctx context.Context, uri string) error {
	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	return client.Ping(connCtx, readpref.Primary())
}
