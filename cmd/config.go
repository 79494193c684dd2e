package cmd

import "fmt"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	HTTPPort                     string
	DBHost                       string
	DBPort                       string
	DBUser                       string
	DBPassword                   string
	DBName                       string
	DBSslMode                    string
	StorageDriver                string
	OrderNumberScheme            string
	WorkflowFile                 string
	KafkaHost                    string
	KafkaConsumerGroup           string
	KafkaLifecycleTopic          string
	RabbitMQURL                  string
	RabbitMQNotificationExchange string
	DaysPassedSchedule           string
}

// PostgresDSN renders the libpq keyword/value connection string.
func (c Config) PostgresDSN() string {
	sslMode := c.DBSslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode)
}
