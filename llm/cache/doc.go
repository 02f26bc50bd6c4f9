// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
包 cache 提供 LLM 补全响应的多级缓存,通过本地 LRU 与 Redis 协同减少
重复调用,降低路由决策的延迟与成本。

# 概述

携带响应 Schema 的路由请求是确定性的:同一 Agent、同一数据转储会产出
同一提示词。CachingClient 将任意 CompletionClient 包装为带缓存的客户
端,以请求的 SHA-256 哈希作为缓存键。

# 核心类型

  - Cache         — 多级缓存,本地 LRU 作为 L1、Redis 作为 L2,自动回填
  - CachingClient — 包装 CompletionClient 的缓存客户端
  - LRUCache      — 双向链表实现的 O(1) 本地缓存

# 使用方式

	c := cache.New(redisClient, cache.DefaultConfig(), logger)
	client := cache.NewCachingClient(upstream, c, collector, logger) // collector 可为 nil
*/
package cache
