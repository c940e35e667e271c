//go:generate mockgen -source=../appender.go         -destination=./mock_appender.go         -package=mocks
//go:generate mockgen -source=../fetcher.go          -destination=./mock_fetcher.go          -package=mocks
//go:generate mockgen -source=../offset_store.go     -destination=./mock_offset_store.go     -package=mocks
//go:generate mockgen -source=../dead_letter.go      -destination=./mock_dead_letter.go      -package=mocks
//go:generate mockgen -source=../seen_cache.go       -destination=./mock_seen_cache.go       -package=mocks
//go:generate mockgen -source=../validator.go        -destination=./mock_validator.go        -package=mocks
//go:generate mockgen -source=../logger.go           -destination=./mock_logger.go           -package=mocks
//go:generate mockgen -source=../message_consumer.go -destination=./mock_message_consumer.go -package=mocks
//go:generate mockgen -source=../event_service.go    -destination=./mock_event_service.go    -package=mocks
//go:generate mockgen -source=../topic_catalog.go    -destination=./mock_topic_catalog.go    -package=mocks
//go:generate mockgen -source=../consumer_supervisor.go -destination=./mock_consumer_supervisor.go -package=mocks

package mocks
