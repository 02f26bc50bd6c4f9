// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 HiveFlow 框架的全局共享类型定义。

# 概述

types 是框架最底层的公共包，不依赖任何内部包，为 agent、pipeline、router、
llm 等上层模块提供统一的类型契约。所有跨包共享的结构体、枚举和错误码均
定义于此，以避免循环依赖。

# 核心类型

  - DataMap           — 流经管线的数据载体（含引擎保留键）
  - Message / Role    — LLM 对话消息
  - LLMDecision       — LLM 路由决策的结构化返回形状
  - Error / ErrorCode — 结构化错误体系，含 Retryable 与 Cause 标记

# 保留键

以下划线开头的键由引擎持有：

  - _pipeline_id    — 管线全局单调递增 ID，一次分配后不可变
  - _retry_attempt  — 当前 Agent 的重试次数，Forward 时清零

llm_reasoning 由 LLM 路由器在决策成功后写入。

# 错误工具链

WrapError / AsError / IsErrorCode / IsRetryable 提供统一的错误判定与包装。
*/
package types
