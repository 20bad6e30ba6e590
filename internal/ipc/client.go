package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call("Shortpipe."+method, req, resp)
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns queue items optionally filtered by statuses.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.call("QueueList", QueueListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe returns one queue item and its publish history.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	var resp QueueDescribeResponse
	if err := c.call("QueueDescribe", QueueDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueStats returns per-status counts.
func (c *Client) QueueStats() (*QueueStatsResponse, error) {
	var resp QueueStatsResponse
	if err := c.call("QueueStats", QueueStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueHealth returns aggregate queue diagnostics.
func (c *Client) QueueHealth() (*QueueHealthResponse, error) {
	var resp QueueHealthResponse
	if err := c.call("QueueHealth", QueueHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry retries all failed items.
func (c *Client) QueueRetry() (*QueueRetryResponse, error) {
	var resp QueueRetryResponse
	if err := c.call("QueueRetry", QueueRetryRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueReset fails items stuck in processing statuses.
func (c *Client) QueueReset() (*QueueResetResponse, error) {
	var resp QueueResetResponse
	if err := c.call("QueueReset", QueueResetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes items of the given scope ("completed", "failed", "all").
func (c *Client) QueueClear(scope string) (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.call("QueueClear", QueueClearRequest{Scope: scope}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove deletes specific items by id.
func (c *Client) QueueRemove(ids []int64) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.call("QueueRemove", QueueRemoveRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Approve approves pending-review items.
func (c *Client) Approve(ids []int64, decidedBy string) (*ReviewResponse, error) {
	var resp ReviewResponse
	if err := c.call("Approve", ReviewRequest{IDs: ids, DecidedBy: decidedBy}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reject rejects pending-review items with an optional reason.
func (c *Client) Reject(ids []int64, decidedBy, reason string) (*ReviewResponse, error) {
	var resp ReviewResponse
	if err := c.call("Reject", ReviewRequest{IDs: ids, DecidedBy: decidedBy, Reason: reason}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SchedulerPause suspends publish dispatch.
func (c *Client) SchedulerPause() (*SchedulerResponse, error) {
	var resp SchedulerResponse
	if err := c.call("SchedulerPause", SchedulerPauseRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SchedulerResume re-enables publish dispatch.
func (c *Client) SchedulerResume() (*SchedulerResponse, error) {
	var resp SchedulerResponse
	if err := c.call("SchedulerResume", SchedulerResumeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChannelAdd creates or updates a tracked channel.
func (c *Client) ChannelAdd(req ChannelAddRequest) (*ChannelAddResponse, error) {
	var resp ChannelAddResponse
	if err := c.call("ChannelAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChannelList returns tracked channels.
func (c *Client) ChannelList() (*ChannelListResponse, error) {
	var resp ChannelListResponse
	if err := c.call("ChannelList", ChannelListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChannelEnable toggles discovery for a channel.
func (c *Client) ChannelEnable(id string, enabled bool) (*ChannelEnableResponse, error) {
	var resp ChannelEnableResponse
	if err := c.call("ChannelEnable", ChannelEnableRequest{ID: id, Enabled: enabled}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChannelImport imports a YAML channel roster by path.
func (c *Client) ChannelImport(path string) (*ChannelImportResponse, error) {
	var resp ChannelImportResponse
	if err := c.call("ChannelImport", ChannelImportRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VideoAdd enqueues a video for processing.
func (c *Client) VideoAdd(req VideoAddRequest) (*VideoAddResponse, error) {
	var resp VideoAddResponse
	if err := c.call("VideoAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.call("LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
