// Package redis connects to Redis and checks its health.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	healthy := redis.Healthcheck(client)
//
// Connect pings the server until it answers, retrying RetryAttempts times
// RetryInterval apart within ConnectTimeout. Errors wrap the package
// sentinels with errors.Join.
package redis
