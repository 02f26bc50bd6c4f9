// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
Package llm 定义引擎消费的 LLM 补全传输抽象。

引擎只依赖 CompletionClient 一个接口:携带声明的响应 Schema 发起一次
chat completion,由传输层保证返回值符合该 Schema。具体 Provider 实现
位于 providers/ 下,测试替身位于 testutil/mocks。

响应缓存见子包 llm/cache。
*/
package llm
