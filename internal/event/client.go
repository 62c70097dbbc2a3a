// Package event pushes user facing notifications to the platform
// notification service after a wizard step commits. Access to the
// service is granted per request via a short lived token signed with
// the portal's app secret.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/go-resty/resty/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	GroupID           = "notification-dispatcher.selfservice"
	EventVersion      = "v1"
	AccessTokenHeader = "X-Access-Token"
)

// Client talks to the notification service. Credentials and server
// address are injected at construction; nothing is read from the
// environment here.
type Client struct {
	HttpClient *resty.Client
	server     string
	appKey     string
	appSecret  string
}

// NewClient builds a notification client.
func NewClient(server, appKey, appSecret string) *Client {
	c := resty.New()

	return &Client{
		HttpClient: c.SetTimeout(2 * time.Second),
		server:     server,
		appKey:     appKey,
		appSecret:  appSecret,
	}
}

// Enabled reports whether a notification server is configured.
func (c *Client) Enabled() bool {
	return c.server != ""
}

// GetAccessToken obtains a create-event token. The token request is
// authenticated with a bcrypt hash over app key, timestamp and app
// secret.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	url := fmt.Sprintf("http://%s/permission/v1alpha1/access", c.server)
	now := time.Now().UnixMilli() / 1000

	password := c.appKey + strconv.Itoa(int(now)) + c.appSecret
	encode, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	perm := AccessTokenRequest{
		AppKey:    c.appKey,
		Timestamp: now,
		Token:     string(encode),
		Perm: PermissionRequire{
			Group:    GroupID,
			Version:  EventVersion,
			DataType: "event",
			Ops: []string{
				"Create",
			},
		},
	}

	postData, err := json.Marshal(perm)
	if err != nil {
		return "", err
	}

	resp, err := c.HttpClient.R().
		SetContext(ctx).
		SetHeader(restful.HEADER_ContentType, restful.MIME_JSON).
		SetBody(postData).
		SetResult(&AccessTokenResp{}).
		Post(url)

	if err != nil {
		return "", err
	}

	if resp.StatusCode() != http.StatusOK {
		return "", errors.New(string(resp.Body()))
	}

	token := resp.Result().(*AccessTokenResp)

	if token.Code != 0 {
		return "", errors.New(token.Message)
	}

	return token.Data.AccessToken, nil
}

// NotifySetupComplete sends a notification to the account's users
// that a setup step finished, e.g. the 3DS Flex settings update. A
// disabled client drops the notification silently.
func (c *Client) NotifySetupComplete(ctx context.Context, accountID, message string) error {
	if !c.Enabled() {
		return nil
	}

	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/system-server/v1alpha1/event/notification-dispatcher/v1/Create", c.server)
	ev := Event{
		Type:    "selfservice.setup.notification",
		Version: EventVersion,
		Data: Data{
			Message: message,
			Payload: map[string]string{"account_id": accountID},
		},
	}

	postData, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	resp, err := c.HttpClient.R().
		SetContext(ctx).
		SetHeader(restful.HEADER_ContentType, restful.MIME_JSON).
		SetHeader(AccessTokenHeader, token).
		SetBody(postData).
		Post(url)
	if err != nil {
		return err
	}

	if resp.StatusCode() != http.StatusOK {
		return errors.New(string(resp.Body()))
	}
	return nil
}
