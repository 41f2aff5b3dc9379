// Package rendezvous 实现基于命名空间的节点发现协议引擎
//
// # 模块概述
//
// rendezvous 通过命名空间实现轻量级节点发现：节点向 Rendezvous Point
// 注册自己所在的命名空间与传输地址，其他节点按命名空间分页拉取注册列表。
// 引擎本身与具体传输解耦，连接与流通过 pkg/interfaces 的边界接口注入。
//
// # 核心功能
//
// 1. 注册存储（Store）
//   - 同一 (节点, 命名空间) 最多一条存活注册，重复注册即续约
//   - TTL 钳制与过期判定
//   - 序号游标分页，写入不会使游标失效
//
// 2. 协议会话（session）
//   - 每条流一个请求/响应循环
//   - 身份只取自连接层认证结果，载荷中的 id 仅作一致性校验
//   - 语义错误返回结构化状态码，帧损坏直接终止会话
//
// 3. Rendezvous Point 服务端（Point）
//   - 连接接入与会话派发
//   - 连接丢失时移除该对端全部注册
//   - 周期性过期清扫（Sweeper）
//
// 4. 客户端（Client）
//   - 注册 / 取消注册 / 分页发现
//   - 注册自动续约，重连后恢复注册
//
// # 使用示例
//
// ## 作为服务端
//
//	cfg := rendezvous.DefaultPointConfig()
//	point, err := rendezvous.NewPoint(cfg, listener, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	point.Start(ctx)
//	defer point.Stop()
//
// ## 作为客户端
//
//	client, err := rendezvous.NewClient(rendezvous.DefaultClientConfig(), dialer, "127.0.0.1:4001", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ttl, err := client.Register(ctx, "my-app", []string{"/ip4/1.2.3.4/tcp/4001"}, 2*time.Hour)
//	found, cookie, err := client.Discover(ctx, "my-app", 100, nil)
package rendezvous
