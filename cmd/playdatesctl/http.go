package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiClient() *resty.Client {
	c := resty.New().
		SetBaseURL(apiFlag).
		SetTimeout(10 * time.Second)
	if tokenFlag != "" {
		c.SetAuthToken(tokenFlag)
	}
	return c
}

// call executes the request and returns the body, treating any non-2xx
// status as an error.
func call(req *resty.Request, method, path string) (string, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s: %s", resp.Status(), resp.String())
	}
	return resp.String(), nil
}
