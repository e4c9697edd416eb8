package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"options_bot/internal/models"
	"options_bot/internal/modules/config"
	healthsvc "options_bot/internal/modules/health/service"
	"options_bot/pkg/logger"
)

// Client — сессия брокера: REST-логин за ssid, дальше один WebSocket
// на всё (запросы sendMessage + пуши option-closed). Read pump владеет
// соединением и сам переподключается с бэкоффом в 1 секунду.
type Client struct {
	cfg    *config.Config
	health *healthsvc.State

	http   *http.Client
	dialer *websocket.Dialer

	mu      sync.Mutex // conn + pending + watchers + results
	conn    *websocket.Conn
	ssid    string
	reqSeq  int64
	pending map[string]chan inFrame

	watchers map[int64]chan bool
	results  map[int64]bool // исходы, пришедшие раньше ожидающего
}

func NewClient(cfg *config.Config, health *healthsvc.State) *Client {
	return &Client{
		cfg:      cfg,
		health:   health,
		http:     &http.Client{Timeout: cfg.RequestTimeout()},
		dialer:   &websocket.Dialer{HandshakeTimeout: cfg.RequestTimeout()},
		pending:  make(map[string]chan inFrame),
		watchers: make(map[int64]chan bool),
		results:  make(map[int64]bool),
	}
}

// Connect устанавливает сессию: логин, сокет, авторизация, выбор счёта.
// Ошибка тут фатальна — без сессии торговать нечем.
func (c *Client) Connect(ctx context.Context) error {
	ssid, err := c.login(ctx)
	if err != nil {
		return errors.Wrap(models.ErrConnection, err.Error())
	}
	c.mu.Lock()
	c.ssid = ssid
	c.mu.Unlock()

	if err := c.dial(ctx); err != nil {
		return errors.Wrap(models.ErrConnection, err.Error())
	}

	go c.readPump(ctx)

	// выбор счёта до первого запроса: PRACTICE и REAL — разные балансы
	if _, err := c.request(ctx, "change-balance", map[string]any{
		"balance_type": c.cfg.AccountType,
	}); err != nil {
		return errors.Wrap(models.ErrConnection, err.Error())
	}

	logger.Info("broker session established, account=%s", c.cfg.AccountType)
	return nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	payload, err := sonic.Marshal(map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("login marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.Broker.RestURL+"/api/v2/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("login new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("login http %d: %s", resp.StatusCode, string(data))
	}

	var lr loginResponse
	if err := sonic.Unmarshal(data, &lr); err != nil {
		return "", fmt.Errorf("login decode: %w; body=%s", err, string(data))
	}
	if lr.SSID == "" {
		return "", fmt.Errorf("login rejected: code=%s", lr.Code)
	}
	return lr.SSID, nil
}

// dial открывает сокет и шлёт авторизационный фрейм с ssid.
func (c *Client) dial(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.Broker.WsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}

	auth, err := marshalFrame(outFrame{Name: "ssid", Msg: c.ssid})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("ws auth marshal: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, auth); err != nil {
		_ = conn.Close()
		return fmt.Errorf("ws auth write: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.health.SetBrokerConnected(true)
	return nil
}

// readPump — единственный читатель сокета. Разбирает ответы по request_id,
// пуши option-closed раскидывает по ожидающим, на обрыве гасит все
// висящие запросы и передоговаривается с бэкоффом 1s, пока жив контекст.
func (c *Client) readPump(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		stopPing := make(chan struct{})
		go c.pingLoop(ctx, conn, stopPing)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("[WS] read error: %v", err)
				break
			}
			frame, err := unmarshalFrame(msg)
			if err != nil {
				continue
			}
			c.dispatch(frame)
		}

		close(stopPing)
		_ = conn.Close()
		c.health.SetBrokerConnected(false)
		c.failPending()

		// переподключение: без него одна сетевая икота убивает сессию
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := c.dial(ctx); err != nil {
				log.Printf("[WS] redial error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			log.Printf("[WS] reconnected")
			break
		}
	}
}

// keepalive раз в 20s, иначе площадка молча рвёт соединение
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-t.C:
			frame, _ := marshalFrame(outFrame{Name: "heartbeat", Msg: time.Now().UnixMilli()})
			c.mu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, frame)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(frame inFrame) {
	if frame.Name == "option-closed" {
		var ev optionClosedMsg
		if err := sonic.Unmarshal(frame.Msg, &ev); err != nil {
			return
		}
		win := ev.Result == "win"
		c.mu.Lock()
		if ch, ok := c.watchers[ev.ID]; ok {
			delete(c.watchers, ev.ID)
			c.mu.Unlock()
			ch <- win
			close(ch)
			return
		}
		// исход пришёл раньше, чем его начали ждать — придержим
		c.results[ev.ID] = win
		c.mu.Unlock()
		return
	}

	if frame.RequestID == "" {
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[frame.RequestID]
	if ok {
		delete(c.pending, frame.RequestID)
	}
	c.mu.Unlock()
	if ok {
		ch <- frame
		close(ch)
	}
}

// обрыв соединения валит и запросы, и ожидания исходов:
// закрытый канал читается как "connection lost"
func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
	for id, ch := range c.watchers {
		delete(c.watchers, id)
		close(ch)
	}
}

// request — один запрос sendMessage с ожиданием ответа по request_id.
func (c *Client) request(ctx context.Context, name string, body interface{}) (inFrame, error) {
	c.mu.Lock()
	c.reqSeq++
	reqID := strconv.FormatInt(c.reqSeq, 10)
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return inFrame{}, errors.Wrap(models.ErrFetch, "ws not connected")
	}
	ch := make(chan inFrame, 1)
	c.pending[reqID] = ch

	frame, err := marshalFrame(outFrame{
		Name:      "sendMessage",
		RequestID: reqID,
		Msg:       requestBody{Name: name, Version: "2.0", Body: body},
	})
	if err != nil {
		delete(c.pending, reqID)
		c.mu.Unlock()
		return inFrame{}, fmt.Errorf("request marshal %s: %w", name, err)
	}
	err = conn.WriteMessage(websocket.TextMessage, frame)
	if err != nil {
		delete(c.pending, reqID)
		c.mu.Unlock()
		return inFrame{}, errors.Wrapf(models.ErrFetch, "request write %s: %v", name, err)
	}
	c.mu.Unlock()

	timer := time.NewTimer(c.cfg.RequestTimeout())
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return inFrame{}, errors.Wrapf(models.ErrFetch, "%s: connection lost", name)
		}
		return resp, nil
	case <-timer.C:
		c.dropPending(reqID)
		return inFrame{}, errors.Wrapf(models.ErrTimeout, "%s: no response", name)
	case <-ctx.Done():
		c.dropPending(reqID)
		return inFrame{}, ctx.Err()
	}
}

func (c *Client) dropPending(reqID string) {
	c.mu.Lock()
	delete(c.pending, reqID)
	c.mu.Unlock()
}
