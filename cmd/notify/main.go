package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotadesk/backend/internal/config"
	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/notify"
	"github.com/rotadesk/backend/internal/repository"
	"github.com/wneessen/go-mail"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load configuration", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * database, for recipient lookup
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("cannot create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("cannot connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("cannot create mail client", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer dialCancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("cannot reach mail server", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("cannot connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("cannot open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // durable
		false, // keep the queue while no consumer is attached
		false, // shared between workers
		false,
		nil,
	)
	if err != nil {
		logger.Error("cannot declare queue", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("cannot consume queue", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("delivery channel closed")
					return
				}
				deliver(ctx, logger, cfg, repo, client, msg)
			}
		}
	}()

	logger.Info("waiting for notifications (CTRL+C to quit)", "queue", q.Name)
	<-sigChan

	slog.Info("stopping notify worker")
	cancel()
	wg.Wait()
	slog.Info("notify worker stopped")
}

// deliver mails one notification. Malformed messages are dropped; transient failures are
// requeued.
func deliver(ctx context.Context, logger *slog.Logger, cfg *config.Config, repo *repository.Repository, client *mail.Client, msg amqp.Delivery) {
	n := domain.Notification{}
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		logger.Error("cannot decode notification", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	log := logger.With(slog.String("notification", n.ID), slog.String("type", string(n.Type)))

	recipient, err := notify.ResolveRecipient(ctx, repo, n)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrNoRecipient):
			log.Info("notification has no recipient, dropped", slog.Int64("staff", n.StaffID))
			_ = msg.Ack(false)
		default:
			log.Error("cannot resolve recipient", slog.String("error", err.Error()))
			_ = msg.Nack(false, true)
		}
		return
	}

	subject, body, err := notify.RenderMail(n, recipient.Name)
	if err != nil {
		log.Error("cannot render mail", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	m := mail.NewMsg()
	if err := m.From(cfg.Email.SMTP.Username); err != nil {
		log.Error("cannot set sender", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	if err := m.To(recipient.Email); err != nil {
		log.Error("cannot set recipient", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		log.Error("cannot send mail", slog.String("error", err.Error()))
		_ = msg.Nack(false, true)
		return
	}

	log.Info("notification mailed", slog.String("to", recipient.Email))
	_ = msg.Ack(false)
}
