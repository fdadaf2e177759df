// internal/pkg/nacos/client.go
package nacos

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mtogo/internal/pkg/logger"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/pkg/errors"
)

const defaultGroup = "DEFAULT_GROUP"

// Client 负责订单服务自身的注册，以及下游服务 (餐厅、支付、配送) 的实例解析
type Client struct {
	naming naming_client.INamingClient
	group  string
}

// NewNacosClient 连接 Nacos 命名服务，addrs 格式为 "host1:port1,host2:port2"
func NewNacosClient(addrs, namespace, group string) (*Client, error) {
	servers, err := parseServerAddrs(addrs)
	if err != nil {
		return nil, err
	}
	if group == "" {
		group = defaultGroup
	}

	workDir := filepath.Join(os.TempDir(), "nacos")
	clientConfig := constant.NewClientConfig(
		constant.WithNamespaceId(namespace),
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogDir(filepath.Join(workDir, "log")),
		constant.WithCacheDir(filepath.Join(workDir, "cache")),
		constant.WithLogLevel("warn"),
	)
	naming, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  clientConfig,
		ServerConfigs: servers,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create nacos naming client")
	}

	logger.Ctx(context.Background()).Info().
		Str("servers", addrs).
		Str("namespace", namespace).
		Str("group", group).
		Msg("✅ Nacos naming client ready")
	return &Client{naming: naming, group: group}, nil
}

// parseServerAddrs 解析逗号分隔的地址列表，忽略空项
func parseServerAddrs(addrs string) ([]constant.ServerConfig, error) {
	var servers []constant.ServerConfig
	for _, addr := range strings.Split(addrs, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		host, rawPort, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid nacos address %q", addr)
		}
		port, err := strconv.ParseUint(rawPort, 10, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid nacos port in %q", addr)
		}
		servers = append(servers, *constant.NewServerConfig(host, port))
	}
	if len(servers) == 0 {
		return nil, errors.New("no nacos server address configured")
	}
	return servers, nil
}

// RegisterServiceInstance 以临时实例注册，心跳停止后 Nacos 自动摘除
func (c *Client) RegisterServiceInstance(service, ip string, port int) error {
	ok, err := c.naming.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          ip,
		Port:        uint64(port),
		ServiceName: service,
		GroupName:   c.group,
		Weight:      10,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
	})
	if err != nil {
		return errors.Wrapf(err, "register %s", service)
	}
	if !ok {
		return fmt.Errorf("nacos rejected registration of %s at %s:%d", service, ip, port)
	}
	logger.Ctx(context.Background()).Info().Str("service", service).Str("ip", ip).Int("port", port).Msg("✅ Registered with Nacos")
	return nil
}

func (c *Client) DeregisterServiceInstance(service, ip string, port int) error {
	if _, err := c.naming.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          ip,
		Port:        uint64(port),
		ServiceName: service,
		GroupName:   c.group,
		Ephemeral:   true,
	}); err != nil {
		return errors.Wrapf(err, "deregister %s", service)
	}
	logger.Ctx(context.Background()).Info().Str("service", service).Msg("Deregistered from Nacos")
	return nil
}

// Resolve 实现 httpclient.Resolver，每次调用按权重挑一个健康实例
func (c *Client) Resolve(ctx context.Context, service string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	instance, err := c.naming.SelectOneHealthyInstance(vo.SelectOneHealthInstanceParam{
		ServiceName: service,
		GroupName:   c.group,
	})
	if err != nil {
		return "", errors.Wrapf(err, "select healthy instance of %s", service)
	}
	if instance == nil {
		return "", fmt.Errorf("no healthy instance of %s", service)
	}
	return "http://" + net.JoinHostPort(instance.Ip, strconv.FormatUint(instance.Port, 10)), nil
}

func (c *Client) Close() {
	c.naming.CloseClient()
}
