package main

// 端到端巡检工具：对运行中的服务依次执行创建、查询、列表、更新、删除，
// 并验证删除后的读取返回 404。用于部署后的快速冒烟。

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

var verbose bool

// scenario 封装一次巡检过程中共享的资源。
type scenario struct {
	client *http.Client
	base   string
}

func banner(title string) {
	log.Printf("\n=== %s ===", title)
}

func step(format string, args ...interface{}) {
	log.Printf(" • "+format, args...)
}

type envelope struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Metadata json.RawMessage `json:"metadata"`
}

type clientInfo struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func main() {
	var (
		base    string
		timeout time.Duration
	)
	flag.StringVar(&base, "base", "http://127.0.0.1:8080", "Base URL of the rolodex server")
	flag.DurationVar(&timeout, "timeout", 20*time.Second, "HTTP timeout for requests")
	flag.BoolVar(&verbose, "v", true, "Verbose logging")
	flag.Parse()

	sc := &scenario{
		client: &http.Client{Timeout: timeout},
		base:   strings.TrimRight(base, "/"),
	}

	suffix := rand.Int63n(1_000_000)
	name := fmt.Sprintf("e2e_client_%d", suffix)
	email := fmt.Sprintf("e2e_%d@example.com", suffix)

	banner("create")
	created := sc.mustCreate(name, email)
	step("created id=%d", created.ID)

	banner("get")
	got := sc.mustGet(created.ID)
	if got.Name != name || got.Email != email {
		log.Fatalf("get mismatch: %+v", got)
	}
	step("fetched id=%d name=%s", got.ID, got.Name)

	banner("list")
	if !sc.listContains(created.ID) {
		log.Fatalf("list missing id=%d", created.ID)
	}
	step("list contains id=%d", created.ID)

	banner("update")
	newName := name + "_updated"
	updated := sc.mustUpdate(created.ID, newName, email)
	if updated.Name != newName {
		log.Fatalf("update not applied: %+v", updated)
	}
	step("updated id=%d name=%s", updated.ID, updated.Name)

	banner("delete")
	sc.mustDelete(created.ID)
	if status := sc.getStatus(created.ID); status != 404 {
		log.Fatalf("expected 404 after delete, got %d", status)
	}
	step("id=%d gone after delete", created.ID)

	banner("done")
	log.Println("all checks passed")
}

func (sc *scenario) do(method, path string, body any) (int, []byte) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, sc.base+path, rd)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := sc.client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if verbose {
		step("%s %s -> %d", method, path, resp.StatusCode)
	}
	return resp.StatusCode, b
}

func decodeData(body []byte, out any) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Fatalf("decode envelope: %v (%s)", err, body)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func (sc *scenario) mustCreate(name, email string) clientInfo {
	status, body := sc.do("POST", "/clients", map[string]string{"name": name, "email": email})
	if status != 201 {
		log.Fatalf("create: expected 201, got %d (%s)", status, body)
	}
	var ci clientInfo
	decodeData(body, &ci)
	return ci
}

func (sc *scenario) mustGet(id uint64) clientInfo {
	status, body := sc.do("GET", fmt.Sprintf("/clients/%d", id), nil)
	if status != 200 {
		log.Fatalf("get: expected 200, got %d (%s)", status, body)
	}
	var ci clientInfo
	decodeData(body, &ci)
	return ci
}

func (sc *scenario) getStatus(id uint64) int {
	status, _ := sc.do("GET", fmt.Sprintf("/clients/%d", id), nil)
	return status
}

func (sc *scenario) listContains(id uint64) bool {
	// 分页向后翻，直到找到目标或翻完
	offset := 0
	for {
		status, body := sc.do("GET", fmt.Sprintf("/clients?limit=100&offset=%d", offset), nil)
		if status != 200 {
			log.Fatalf("list: expected 200, got %d (%s)", status, body)
		}
		var page []clientInfo
		decodeData(body, &page)
		for _, ci := range page {
			if ci.ID == id {
				return true
			}
		}
		if len(page) < 100 {
			return false
		}
		offset += 100
	}
}

func (sc *scenario) mustUpdate(id uint64, name, email string) clientInfo {
	status, body := sc.do("PUT", fmt.Sprintf("/clients/%d", id), map[string]string{"name": name, "email": email})
	if status != 200 {
		log.Fatalf("update: expected 200, got %d (%s)", status, body)
	}
	var ci clientInfo
	decodeData(body, &ci)
	return ci
}

func (sc *scenario) mustDelete(id uint64) {
	status, body := sc.do("DELETE", fmt.Sprintf("/clients/%d", id), nil)
	if status != 204 {
		log.Fatalf("delete: expected 204, got %d (%s)", status, body)
	}
}
