package nexmorepo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nikmash711/book-corner-server/util/httpx"
)

type httpRepo struct {
	apiKey    string
	apiSecret string
	client    *http.Client
}

func NewHTTP(apiKey, apiSecret string) Repo {
	return &httpRepo{apiKey: apiKey, apiSecret: apiSecret, client: httpx.Client()}
}

func (r *httpRepo) SendSMS(req SendSMSReq) error {
	form := url.Values{}
	form.Set("api_key", r.apiKey)
	form.Set("api_secret", r.apiSecret)
	form.Set("from", req.From)
	form.Set("to", req.To)
	form.Set("text", req.Text)

	httpReq, err := http.NewRequest("POST", "https://rest.nexmo.com/sms/json", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("nexmo send sms failed: %s", resp.Status)
	}

	// https://developer.vonage.com/en/api/sms: status "0" means accepted
	var out struct {
		Messages []struct {
			Status    string `json:"status"`
			ErrorText string `json:"error-text"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	for _, m := range out.Messages {
		if m.Status != "0" {
			return fmt.Errorf("nexmo rejected sms: status=%s %s", m.Status, m.ErrorText)
		}
	}
	return nil
}
