package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"shortpipe/internal/api"
	"shortpipe/internal/daemon"
	"shortpipe/internal/logging"
	"shortpipe/internal/logs"
	"shortpipe/internal/queue"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. The
// shutdown callback, when non-nil, is invoked after a Stop request so
// the process can exit its run loop.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, shutdown func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx, shutdown: shutdown}
	if err := rpcServer.RegisterName("Shortpipe", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("remove socket", logging.String("socket", s.path), logging.Error(err))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.daemon.Stop()
	resp.Stopped = true
	if s.shutdown != nil {
		s.shutdown()
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.QueueDBPath = status.QueueDBPath
	resp.LockPath = status.LockFilePath
	resp.LastError = status.Workflow.LastError

	resp.QueueStats = make(map[string]int, len(status.Workflow.QueueStats))
	for k, v := range status.Workflow.QueueStats {
		resp.QueueStats[string(k)] = v
	}
	if status.Workflow.LastItem != nil {
		dto := api.FromQueueItem(status.Workflow.LastItem)
		resp.LastItem = &dto
	}
	resp.StageHealth = make([]StageHealth, 0, len(status.Workflow.StageHealth))
	for _, health := range status.Workflow.StageHealth {
		resp.StageHealth = append(resp.StageHealth, StageHealth{
			Name:   health.Name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	resp.Scheduler = api.SchedulerStatus{
		Running:          status.Scheduler.Running,
		Paused:           status.Scheduler.Paused,
		LastError:        status.Scheduler.LastError,
		PublishedLast24h: status.Scheduler.PublishedLast24h,
		PublishReady:     status.Scheduler.PublishReady,
	}
	return nil
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		parsed, ok := queue.ParseStatus(raw)
		if !ok {
			return fmt.Errorf("unknown status %q", raw)
		}
		statuses = append(statuses, parsed)
	}
	items, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = api.FromQueueItems(items)
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *QueueDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid queue item id %d", req.ID)
	}
	item, err := s.daemon.GetQueueItem(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("queue item %d not found", req.ID)
	}
	resp.Item = api.FromQueueItem(item)

	history, err := s.daemon.PublishHistory(s.ctx, req.ID)
	if err != nil {
		return err
	}
	for _, event := range history {
		resp.History = append(resp.History, api.FromPublishEvent(event))
	}
	return nil
}

func (s *service) QueueStats(_ QueueStatsRequest, resp *QueueStatsResponse) error {
	stats, err := s.daemon.QueueStats(s.ctx)
	if err != nil {
		return err
	}
	resp.Counts = make(map[string]int, len(stats))
	for status, count := range stats {
		resp.Counts[string(status)] = count
	}
	return nil
}

func (s *service) QueueHealth(_ QueueHealthRequest, resp *QueueHealthResponse) error {
	health, err := s.daemon.QueueHealth(s.ctx)
	if err != nil {
		return err
	}
	resp.Health = api.FromHealth(health)
	return nil
}

func (s *service) QueueRetry(_ QueueRetryRequest, resp *QueueRetryResponse) error {
	updated, err := s.daemon.RetryFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.logger.Info("failed items retried",
		logging.String(logging.FieldEventType, "queue_retry"),
		logging.Int("updated", updated))
	return nil
}

func (s *service) QueueReset(_ QueueResetRequest, resp *QueueResetResponse) error {
	updated, err := s.daemon.ResetStuck(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.logger.Info("stuck items reset",
		logging.String(logging.FieldEventType, "queue_reset_stuck"),
		logging.Int("updated", updated))
	return nil
}

func (s *service) QueueClear(req QueueClearRequest, resp *QueueClearResponse) error {
	var (
		removed int
		err     error
	)
	switch req.Scope {
	case "completed":
		removed, err = s.daemon.ClearCompleted(s.ctx)
	case "failed":
		removed, err = s.daemon.ClearFailed(s.ctx)
	case "all":
		removed, err = s.daemon.ClearQueue(s.ctx)
	default:
		return fmt.Errorf("unknown clear scope %q", req.Scope)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.String("scope", req.Scope),
		logging.Int("removed", removed))
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("queue remove requires at least one id")
	}
	removed, err := s.daemon.RemoveItems(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) Approve(req ReviewRequest, resp *ReviewResponse) error {
	results, err := s.daemon.Approve(s.ctx, req.IDs, req.DecidedBy)
	if err != nil {
		return err
	}
	resp.Results = reviewResults(results)
	return nil
}

func (s *service) Reject(req ReviewRequest, resp *ReviewResponse) error {
	results, err := s.daemon.Reject(s.ctx, req.IDs, req.DecidedBy, req.Reason)
	if err != nil {
		return err
	}
	resp.Results = reviewResults(results)
	return nil
}

func reviewResults(results []queue.BulkResult) []api.ReviewResult {
	out := make([]api.ReviewResult, 0, len(results))
	for _, result := range results {
		entry := api.ReviewResult{ID: result.ItemID, Status: string(result.Status)}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
		out = append(out, entry)
	}
	return out
}

func (s *service) SchedulerPause(_ SchedulerPauseRequest, resp *SchedulerResponse) error {
	s.daemon.PauseScheduler()
	resp.Paused = true
	return nil
}

func (s *service) SchedulerResume(_ SchedulerResumeRequest, resp *SchedulerResponse) error {
	s.daemon.ResumeScheduler()
	resp.Paused = false
	return nil
}

func (s *service) ChannelAdd(req ChannelAddRequest, resp *ChannelAddResponse) error {
	err := s.daemon.AddChannel(s.ctx, &queue.Channel{
		ID:               req.ID,
		Name:             req.Name,
		PriorityTier:     req.PriorityTier,
		MaxTrackedVideos: req.MaxTrackedVideos,
		Enabled:          req.Enabled,
	})
	if err != nil {
		return err
	}
	resp.Applied = true
	return nil
}

func (s *service) ChannelList(_ ChannelListRequest, resp *ChannelListResponse) error {
	channels, err := s.daemon.ListChannels(s.ctx)
	if err != nil {
		return err
	}
	resp.Channels = make([]Channel, 0, len(channels))
	for _, ch := range channels {
		count, err := s.daemon.TrackedVideoCount(s.ctx, ch.ID)
		if err != nil {
			return err
		}
		resp.Channels = append(resp.Channels, api.FromChannel(ch, count))
	}
	return nil
}

func (s *service) ChannelEnable(req ChannelEnableRequest, resp *ChannelEnableResponse) error {
	if err := s.daemon.SetChannelEnabled(s.ctx, req.ID, req.Enabled); err != nil {
		return err
	}
	resp.Applied = true
	return nil
}

func (s *service) ChannelImport(req ChannelImportRequest, resp *ChannelImportResponse) error {
	imported, err := s.daemon.ImportChannels(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Imported = imported
	return nil
}

func (s *service) VideoAdd(req VideoAddRequest, resp *VideoAddResponse) error {
	item, err := s.daemon.AddVideo(s.ctx, req.ChannelID, req.Title, req.SourceURL, req.DurationSeconds)
	if err != nil {
		return err
	}
	resp.Item = api.FromQueueItem(item)
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
